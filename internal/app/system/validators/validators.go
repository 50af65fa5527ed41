// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and attaches JSON-Schema
// validators. On servers that do not support collMod/validators we log and
// skip.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("community_posts", communityPostsSchema())
	ensure("conversations", conversationsSchema())
	ensure("bastions", bastionsSchema())
	ensure("messages", messagesSchema())

	ensure("projects", nil)
	ensure("progress", nil)
	ensure("blog_posts", nil)
	ensure("blog_comments", nil)
	ensure("community_comments", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection returns created==true only if it actually created name.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	if exists, listErr := collectionExists(ctx, db, name); listErr == nil && exists {
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func commandErrMatches(err error, code int32, fragments ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandErrMatches(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandErrMatches(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandErrMatches(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var integer = bson.A{"int", "long"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"username", "username_ci", "email", "hashed_password", "xp", "level"},
			"properties": bson.M{
				"username":    bson.M{"bsonType": "string", "minLength": 3, "maxLength": 50},
				"username_ci": bson.M{"bsonType": "string", "minLength": 1},
				"email":       bson.M{"bsonType": "string", "minLength": 3},
				"xp":          bson.M{"bsonType": integer, "minimum": 0},
				"level":       bson.M{"bsonType": integer, "minimum": 1},
				"is_admin":    bson.M{"bsonType": "bool"},
			},
		},
	}
}

func communityPostsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "post_type", "likes", "replies", "last_activity"},
			"properties": bson.M{
				"post_type":     bson.M{"enum": bson.A{"question", "showcase", "discussion", "challenge"}},
				"likes":         bson.M{"bsonType": integer, "minimum": 0},
				"replies":       bson.M{"bsonType": integer, "minimum": 0},
				"views":         bson.M{"bsonType": integer, "minimum": 0},
				"last_activity": bson.M{"bsonType": "date"},
			},
		},
	}
}

func conversationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"conversation_type", "participants"},
			"properties": bson.M{
				"conversation_type": bson.M{"enum": bson.A{"direct", "bastion"}},
				"participants":      bson.M{"bsonType": "array", "minItems": 1, "items": bson.M{"bsonType": "objectId"}},
			},
		},
	}
}

func bastionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "max_members", "members", "creator_id"},
			"properties": bson.M{
				"name":        bson.M{"bsonType": "string", "minLength": 3, "maxLength": 50},
				"max_members": bson.M{"bsonType": integer, "minimum": 5, "maximum": 15},
				"members":     bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"creator_id":  bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func messagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"conversation_id", "sender_id", "content", "message_type"},
			"properties": bson.M{
				"conversation_id": bson.M{"bsonType": "objectId"},
				"sender_id":       bson.M{"bsonType": "objectId"},
				"content":         bson.M{"bsonType": "string", "minLength": 1, "maxLength": 5000},
				"message_type":    bson.M{"enum": bson.A{"text", "code"}},
			},
		},
	}
}
