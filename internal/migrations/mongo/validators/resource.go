package validators

import "go.mongodb.org/mongo-driver/bson"

var ResourceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"type",
			"is_available",
			"requires_approval",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"room",
					"hall",
					"lab",
					"equipment",
				},
			},

			"capacity": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"is_available": bson.M{
				"bsonType": "bool",
			},

			"requires_approval": bson.M{
				"bsonType": "bool",
			},

			"auto_approve": bson.M{
				"bsonType": "bool",
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"image_url": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
