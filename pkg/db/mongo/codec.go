package mongo

import (
	"fmt"
	"reflect"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// NewRegistry returns the default bson registry extended with a codec that
// stores decimal.Decimal as Decimal128.
func NewRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(decimalType, bsoncodec.ValueEncoderFunc(encodeDecimal))
	reg.RegisterTypeDecoder(decimalType, bsoncodec.ValueDecoderFunc(decodeDecimal))
	return reg
}

func encodeDecimal(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != decimalType {
		return bsoncodec.ValueEncoderError{Name: "DecimalEncodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}

	d := val.Interface().(decimal.Decimal)
	d128, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return fmt.Errorf("encode decimal %s: %w", d.String(), err)
	}
	return vw.WriteDecimal128(d128)
}

func decodeDecimal(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != decimalType {
		return bsoncodec.ValueDecoderError{Name: "DecimalDecodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}

	var (
		d   decimal.Decimal
		err error
	)

	switch vr.Type() {
	case bsontype.Decimal128:
		var d128 primitive.Decimal128
		d128, err = vr.ReadDecimal128()
		if err == nil {
			d, err = decimal.NewFromString(d128.String())
		}
	case bsontype.Double:
		var f float64
		f, err = vr.ReadDouble()
		d = decimal.NewFromFloat(f)
	case bsontype.Int32:
		var i int32
		i, err = vr.ReadInt32()
		d = decimal.NewFromInt32(i)
	case bsontype.Int64:
		var i int64
		i, err = vr.ReadInt64()
		d = decimal.NewFromInt(i)
	case bsontype.String:
		var s string
		s, err = vr.ReadString()
		if err == nil {
			d, err = decimal.NewFromString(s)
		}
	case bsontype.Null:
		err = vr.ReadNull()
	default:
		return fmt.Errorf("cannot decode %v into decimal.Decimal", vr.Type())
	}
	if err != nil {
		return err
	}

	val.Set(reflect.ValueOf(d))
	return nil
}
