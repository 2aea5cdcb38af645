package validators

import "go.mongodb.org/mongo-driver/bson"

var PaymentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"amount",
			"currency",
			"provider",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_id": objectIDString,

			"amount": bson.M{
				"bsonType": "decimal",
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"provider": bson.M{
				"bsonType": "string",
				"enum":     []string{"telebirr", "chappa", "ebirr", "kaafi"},
			},

			"provider_reference": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"transaction_id": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"pending", "success", "failed", "cancelled"},
			},

			"error_message": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
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

var PaymentLogValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"payment_id", "booking_id", "action", "created_at"},
		"properties": bson.M{
			"payment_id": objectIDString,
			"booking_id": objectIDString,
			"action": bson.M{
				"bsonType": "string",
				"enum": []string{
					"BOOKING_CREATED",
					"PAYMENT_INITIATED",
					"PAYMENT_SUCCESS",
					"PAYMENT_FAILED",
					"PAYMENT_MISMATCH",
					"PAYMENT_REJECTED",
					"PAYMENT_UPDATED",
					"BOOKING_EXPIRED",
				},
			},
			"details":    bson.M{"bsonType": "object"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
