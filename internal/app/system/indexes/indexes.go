// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each index set is idempotent; errors are
aggregated so every problem shows up in one startup failure.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		coll   string
		models []mongo.IndexModel
	}{
		{"users", usersIndexes()},
		{"projects", projectsIndexes()},
		{"progress", progressIndexes()},
		{"blog_posts", blogPostsIndexes()},
		{"blog_comments", commentsIndexes("blog_comments")},
		{"community_posts", communityPostsIndexes()},
		{"community_comments", commentsIndexes("community_comments")},
		{"conversations", conversationsIndexes()},
		{"bastions", bastionsIndexes()},
		{"messages", messagesIndexes()},
		{"audit_events", auditIndexes()},
	}

	var problems []string
	for _, s := range sets {
		if err := ensureIndexSet(ctx, db.Collection(s.coll), s.models); err != nil {
			problems = append(problems, s.coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if sameBoolPtr(unique, ex.Unique) && (name == "" || ex.Name == name) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			// options or name drifted: drop and recreate below
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			if wafflemongo.IsDup(err) && unique != nil && *unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Error(err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", created),
			zap.String("keys", sig),
			zap.Bool("unique", unique != nil && *unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func idx(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

func uniqueIdx(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func usersIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		uniqueIdx("uniq_users_email", bson.D{{Key: "email", Value: 1}}),
		uniqueIdx("uniq_users_username_ci", bson.D{{Key: "username_ci", Value: 1}}),
		idx("idx_users_created", bson.D{{Key: "created_at", Value: -1}}),
	}
}

func projectsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_projects_published_created", bson.D{{Key: "is_published", Value: 1}, {Key: "created_at", Value: -1}}),
		idx("idx_projects_language", bson.D{{Key: "language", Value: 1}}),
	}
}

func progressIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		uniqueIdx("uniq_progress_user_project", bson.D{{Key: "user_id", Value: 1}, {Key: "project_id", Value: 1}}),
	}
}

func blogPostsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_blog_published_created", bson.D{{Key: "published", Value: 1}, {Key: "created_at", Value: -1}}),
		idx("idx_blog_category", bson.D{{Key: "category", Value: 1}}),
	}
}

func commentsIndexes(coll string) []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_"+coll+"_post_created", bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: -1}}),
	}
}

func communityPostsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_community_pinned_activity", bson.D{{Key: "is_pinned", Value: -1}, {Key: "last_activity", Value: -1}}),
		idx("idx_community_activity", bson.D{{Key: "last_activity", Value: -1}}),
		idx("idx_community_trending", bson.D{{Key: "is_trending", Value: 1}}),
		idx("idx_community_category", bson.D{{Key: "category", Value: 1}}),
	}
}

func conversationsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_conversations_participant_updated", bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}}),
		{
			Keys: bson.D{{Key: "participants_key", Value: 1}},
			Options: options.Index().
				SetName("uniq_conversations_direct_key").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"conversation_type": "direct"}),
		},
	}
}

func bastionsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_bastions_members", bson.D{{Key: "members", Value: 1}}),
		idx("idx_bastions_private_activity", bson.D{{Key: "is_private", Value: 1}, {Key: "last_activity", Value: -1}}),
	}
}

func messagesIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_messages_conversation_created", bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}}),
	}
}

func auditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_audit_timestamp", bson.D{{Key: "timestamp", Value: -1}}),
		idx("idx_audit_user_timestamp", bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}),
		idx("idx_audit_category_type_timestamp", bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}}),
	}
}
