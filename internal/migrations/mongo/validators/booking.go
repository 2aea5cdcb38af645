package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"hotel_id",
			"room_id",
			"checkin_date",
			"checkout_date",
			"nights",
			"total_amount",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id":  objectIDString,
			"hotel_id": objectIDString,
			"room_id":  objectIDString,

			"checkin_date": bson.M{
				"bsonType": "date",
			},

			"checkout_date": bson.M{
				"bsonType": "date",
			},

			"nights": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"total_amount": bson.M{
				"bsonType": "decimal",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"pending_payment",
					"confirmed",
					"cancelled",
					"expired",
					"refunded",
				},
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

// BookingLockValidator keys locks by "room:<id>".
var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "token", "expires_at", "created_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
				"pattern":  "^room:",
			},
			"token":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var objectIDString = bson.M{
	"bsonType":  "string",
	"minLength": 24,
	"maxLength": 24,
}
