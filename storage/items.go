package storage

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/pkg/errors"
)

// binaryPointItem stores an orb.Point field as two float64 values (lon, lat).
type binaryPointItem struct {
	FieldName string
}

func (b *binaryPointItem) Write(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.Array || field.Len() != 2 {
		return -1, errors.Errorf("Field %s is not a point", b.FieldName)
	}

	binary.LittleEndian.PutUint64(data[index:], math.Float64bits(field.Index(0).Float()))
	binary.LittleEndian.PutUint64(data[index+8:], math.Float64bits(field.Index(1).Float()))
	return index + 16, nil
}

func (b *binaryPointItem) Read(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.Array || field.Len() != 2 {
		return -1, errors.Errorf("Field %s is not a point", b.FieldName)
	}

	field.Index(0).SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(data[index:])))
	field.Index(1).SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(data[index+8:])))
	return index + 16, nil
}

// binaryPointCollectionItem stores an []orb.Point field as a 32 bit length
// followed by lon/lat float64 pairs.
type binaryPointCollectionItem struct {
	FieldName string
}

func (b *binaryPointCollectionItem) Write(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.Slice {
		return -1, errors.Errorf("Field %s is not a point slice", b.FieldName)
	}

	binary.LittleEndian.PutUint32(data[index:], uint32(field.Len()))
	index += 4

	for i := 0; i < field.Len(); i++ {
		point := field.Index(i)
		binary.LittleEndian.PutUint64(data[index:], math.Float64bits(point.Index(0).Float()))
		binary.LittleEndian.PutUint64(data[index+8:], math.Float64bits(point.Index(1).Float()))
		index += 16
	}

	return index, nil
}

func (b *binaryPointCollectionItem) Read(object any, data []byte, index int) (int, error) {
	field := reflect.Indirect(reflect.ValueOf(object)).FieldByName(b.FieldName)
	if field.Kind() != reflect.Slice {
		return -1, errors.Errorf("Field %s is not a point slice", b.FieldName)
	}

	length := int(binary.LittleEndian.Uint32(data[index:]))
	index += 4
	if length == 0 {
		return index, nil
	}

	slice := reflect.MakeSlice(field.Type(), length, length)
	field.Set(slice)

	for i := 0; i < length; i++ {
		point := slice.Index(i)
		point.Index(0).SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(data[index:])))
		point.Index(1).SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(data[index+8:])))
		index += 16
	}

	return index, nil
}
