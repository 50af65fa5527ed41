// internal/app/system/limits/limits.go
package limits

// Field length limits, counted in runes.
const (
	UsernameMin = 3
	UsernameMax = 50
	FullNameMin = 2
	FullNameMax = 100

	BlogTitleMin   = 5
	BlogTitleMax   = 200
	BlogExcerptMin = 10
	BlogExcerptMax = 500
	BlogContentMin = 50

	CommunityTitleMin   = 5
	CommunityTitleMax   = 200
	CommunityContentMin = 10
	CommunityContentMax = 5000

	BlogCommentMax      = 1000
	CommunityCommentMax = 2000

	MessageMax = 5000

	ProjectTitleMin       = 3
	ProjectTitleMax       = 200
	ProjectDescriptionMin = 10
	ProjectDescriptionMax = 1000
	ProjectXPMin          = 10
	ProjectXPMax          = 1000

	BastionNameMin        = 3
	BastionNameMax        = 50
	BastionDescriptionMin = 10
	BastionDescriptionMax = 200
)

// ReadingWordsPerMinute drives the blog read-time estimate.
const ReadingWordsPerMinute = 200
