package validators

import "go.mongodb.org/mongo-driver/bson"

var HotelValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"name", "location", "status"},
		"properties": bson.M{
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},
			"location": bson.M{
				"bsonType": "string",
			},
			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"active", "inactive", "suspended"},
			},
		},
	},
}

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"hotel_id", "room_number", "price_per_night", "status"},
		"properties": bson.M{
			"hotel_id": objectIDString,
			"room_number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"room_type": bson.M{
				"bsonType": "string",
			},
			"price_per_night": bson.M{
				"bsonType": "decimal",
			},
			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"available", "occupied", "maintenance", "out_of_order"},
			},
			"lock_version": bson.M{
				"bsonType": []string{"int", "long"},
			},
		},
	},
}

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"phone", "email", "role", "created_at"},
		"properties": bson.M{
			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9][0-9]{6,14}$`,
			},
			"email": bson.M{
				"bsonType": "string",
			},
			"role": bson.M{
				"bsonType": "string",
				"enum":     []string{"customer", "admin"},
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
