package storage

import (
	"bytes"
	"encoding/gob"

	"github.com/uhyunpark/orderdesk/pkg/orders"
)

func encodeOrder(o orders.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeOrder(b []byte) (orders.Order, error) {
	var o orders.Order
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&o)
	return o, err
}
