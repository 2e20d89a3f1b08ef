package util

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/pkg/errors"
)

type Datatype int

const (
	DatatypeByte Datatype = iota
	DatatypeUint16
	DatatypeUint32
	DatatypeUint64
	DatatypeInt64
	DatatypeFloat32
	DatatypeFloat64
)

// BinaryItem writes or reads one logical field of an object. Items are
// composed into a BinarySchema which processes them in order, so the written
// layout is exactly the item order with no padding.
type BinaryItem interface {
	Write(object any, data []byte, index int) (int, error)
	Read(object any, data []byte, index int) (int, error)
}

type BinarySchema struct {
	Items []BinaryItem // All items of this object schema. They are written and read in the given order.
}

func (b *BinarySchema) Write(object any, data []byte, index int) (int, error) {
	var err error

	for _, item := range b.Items {
		index, err = item.Write(object, data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

func (b *BinarySchema) Read(object any, data []byte, index int) (int, error) {
	var err error

	for _, item := range b.Items {
		index, err = item.Read(object, data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

type BinaryDataItem struct {
	FieldName  string   // Name of the golang struct field.
	BinaryType Datatype // Type this field should be stored to. This has to be compatible with the field type.
}

func (b *BinaryDataItem) Write(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	return writeBinaryValue(b.BinaryType, b.FieldName, field, data, index)
}

func (b *BinaryDataItem) Read(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	return readBinaryValue(b.BinaryType, b.FieldName, field, data, index)
}

// BinaryStringItem stores a string field as a 32 bit length followed by the
// raw UTF-8 bytes.
type BinaryStringItem struct {
	FieldName string
}

func (b *BinaryStringItem) Write(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.String {
		return -1, errors.Errorf("Unsupported type %s given to BinaryStringItem for field %s", field.Kind().String(), b.FieldName)
	}

	s := field.String()
	binary.LittleEndian.PutUint32(data[index:], uint32(len(s)))
	index += 4
	copy(data[index:], s)
	index += len(s)

	return index, nil
}

func (b *BinaryStringItem) Read(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.String {
		return -1, errors.Errorf("Unsupported type %s given to BinaryStringItem for field %s", field.Kind().String(), b.FieldName)
	}

	length := int(binary.LittleEndian.Uint32(data[index:]))
	index += 4
	field.SetString(string(data[index : index+length]))
	index += length

	return index, nil
}

// BinaryRawCollectionItem represents the simple schema for a slice of scalar
// values. It also stores the size of the slice as 32 bit integer.
type BinaryRawCollectionItem struct {
	FieldName  string   // Name of the golang struct slice.
	BinaryType Datatype // Type the slice elements should be stored to.
}

func (b *BinaryRawCollectionItem) Write(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.Slice && field.Kind() != reflect.Array {
		return -1, errors.Errorf("Unsupported type given to BinaryRawCollectionItem (type=%v, index=%d). Only slices and arrays are supported.", field.Kind(), index)
	}

	binary.LittleEndian.PutUint32(data[index:], uint32(field.Len()))
	index += 4

	var err error
	for i := 0; i < field.Len(); i++ {
		index, err = writeBinaryValue(b.BinaryType, b.FieldName, field.Index(i), data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

func (b *BinaryRawCollectionItem) Read(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.Slice {
		return -1, errors.Errorf("Unsupported type given to BinaryRawCollectionItem (type=%v, index=%d). Only slices are supported.", field.Kind(), index)
	}

	length := int(binary.LittleEndian.Uint32(data[index:]))
	index += 4
	if length == 0 {
		// An absent list stays nil instead of becoming an empty slice.
		return index, nil
	}

	slice := reflect.MakeSlice(field.Type(), length, length)
	field.Set(slice)

	var err error
	for i := 0; i < length; i++ {
		index, err = readBinaryValue(b.BinaryType, b.FieldName, slice.Index(i), data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

// BinaryStringCollectionItem stores a slice of strings, each as length plus
// raw bytes, prefixed with the number of strings.
type BinaryStringCollectionItem struct {
	FieldName string
}

func (b *BinaryStringCollectionItem) Write(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.Slice {
		return -1, errors.Errorf("Unsupported type given to BinaryStringCollectionItem (type=%v, index=%d). Only string slices are supported.", field.Kind(), index)
	}

	binary.LittleEndian.PutUint32(data[index:], uint32(field.Len()))
	index += 4

	for i := 0; i < field.Len(); i++ {
		s := field.Index(i).String()
		binary.LittleEndian.PutUint32(data[index:], uint32(len(s)))
		index += 4
		copy(data[index:], s)
		index += len(s)
	}

	return index, nil
}

func (b *BinaryStringCollectionItem) Read(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.Slice {
		return -1, errors.Errorf("Unsupported type given to BinaryStringCollectionItem (type=%v, index=%d). Only string slices are supported.", field.Kind(), index)
	}

	length := int(binary.LittleEndian.Uint32(data[index:]))
	index += 4
	if length == 0 {
		return index, nil
	}

	slice := reflect.MakeSlice(field.Type(), length, length)
	field.Set(slice)

	for i := 0; i < length; i++ {
		stringLength := int(binary.LittleEndian.Uint32(data[index:]))
		index += 4
		slice.Index(i).SetString(string(data[index : index+stringLength]))
		index += stringLength
	}

	return index, nil
}

// BinaryCollectionItem represents the schema for a slice of structs.
type BinaryCollectionItem struct {
	FieldName  string       // Name of the golang struct slice.
	ItemSchema BinarySchema // Schema of the items in this collection.
}

func (b *BinaryCollectionItem) Write(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.Slice && field.Kind() != reflect.Array {
		return -1, errors.Errorf("Unsupported type given to BinaryCollectionItem (type=%v, index=%d). Only slices and arrays are supported.", field.Kind(), index)
	}

	binary.LittleEndian.PutUint32(data[index:], uint32(field.Len()))
	index += 4

	var err error
	for i := 0; i < field.Len(); i++ {
		index, err = b.ItemSchema.Write(field.Index(i).Addr().Interface(), data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

func (b *BinaryCollectionItem) Read(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.Slice {
		return -1, errors.Errorf("Unsupported type given to BinaryCollectionItem (type=%v, index=%d). Only slices are supported.", field.Kind(), index)
	}

	length := int(binary.LittleEndian.Uint32(data[index:]))
	index += 4
	if length == 0 {
		return index, nil
	}

	slice := reflect.MakeSlice(field.Type(), length, length)
	field.Set(slice)

	var err error
	for i := 0; i < length; i++ {
		index, err = b.ItemSchema.Read(slice.Index(i).Addr().Interface(), data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

func writeBinaryValue(binaryType Datatype, fieldName string, value reflect.Value, data []byte, index int) (int, error) {
	switch binaryType {
	case DatatypeByte:
		data[index] = byte(getUint64FromValue(value))
		index += 1
	case DatatypeUint16:
		binary.LittleEndian.PutUint16(data[index:], uint16(getUint64FromValue(value)))
		index += 2
	case DatatypeUint32:
		binary.LittleEndian.PutUint32(data[index:], uint32(getUint64FromValue(value)))
		index += 4
	case DatatypeUint64, DatatypeInt64:
		binary.LittleEndian.PutUint64(data[index:], getUint64FromValue(value))
		index += 8
	case DatatypeFloat32:
		binary.LittleEndian.PutUint32(data[index:], math.Float32bits(float32(value.Float())))
		index += 4
	case DatatypeFloat64:
		binary.LittleEndian.PutUint64(data[index:], math.Float64bits(value.Float()))
		index += 8
	default:
		return -1, errors.Errorf("Unsupported datatype %d for field %s", binaryType, fieldName)
	}
	return index, nil
}

func readBinaryValue(binaryType Datatype, fieldName string, value reflect.Value, data []byte, index int) (int, error) {
	var raw uint64

	switch binaryType {
	case DatatypeByte:
		raw = uint64(data[index])
		index += 1
	case DatatypeUint16:
		raw = uint64(binary.LittleEndian.Uint16(data[index:]))
		index += 2
	case DatatypeUint32:
		raw = uint64(binary.LittleEndian.Uint32(data[index:]))
		index += 4
	case DatatypeUint64, DatatypeInt64:
		raw = binary.LittleEndian.Uint64(data[index:])
		index += 8
	case DatatypeFloat32:
		value.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(data[index:]))))
		return index + 4, nil
	case DatatypeFloat64:
		value.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(data[index:])))
		return index + 8, nil
	default:
		return -1, errors.Errorf("Unsupported datatype %d for field %s", binaryType, fieldName)
	}

	switch value.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value.SetUint(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value.SetInt(int64(raw))
	default:
		return -1, errors.Errorf("Unsupported field kind %s for field %s", value.Kind().String(), fieldName)
	}

	return index, nil
}

func getUint64FromValue(value reflect.Value) uint64 {
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(value.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.Uint()
	}
	panic("Unsupported value type " + value.Kind().String() + " to convert to uint.")
}
