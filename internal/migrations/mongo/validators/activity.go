package validators

import "go.mongodb.org/mongo-driver/bson"

var ActivityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"actor_id",
			"action",
			"target_type",
			"target_id",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"actor_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"action": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"target_type": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"target_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"details": bson.M{
				"bsonType": "object",
				"additionalProperties": bson.M{
					"bsonType": "string",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
