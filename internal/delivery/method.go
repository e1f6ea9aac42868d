// Package delivery описывает способы доставки: какие поля нужны, куда везем и сколько это стоит.
package delivery

import (
	"errors"
	"fmt"
)

// ErrUnknownMethod способ доставки вне закрытого множества.
var ErrUnknownMethod = errors.New("unknown delivery method")

// Method закрытое множество способов доставки. Подписи для пользователя живут в Registry.
type Method int

const (
	CourierToAddress Method = iota + 1
	SelfPickup
	ToMetroStation
	ThirdPartyCourier
	PostalServiceA
	PostalServiceB
)

// allMethods порядок объявления = порядок показа в селекторе
var allMethods = []Method{
	CourierToAddress,
	SelfPickup,
	ToMetroStation,
	ThirdPartyCourier,
	PostalServiceA,
	PostalServiceB,
}

var methodKeys = map[Method]string{
	CourierToAddress:  "courier",
	SelfPickup:        "pickup",
	ToMetroStation:    "metro",
	ThirdPartyCourier: "third_party_courier",
	PostalServiceA:    "postal_a",
	PostalServiceB:    "postal_b",
}

// String стабильный машинный ключ метода, он же ключ в YAML конфиге.
func (m Method) String() string {
	if k, ok := methodKeys[m]; ok {
		return k
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// Valid true только для значений из закрытого множества.
func (m Method) Valid() bool {
	_, ok := methodKeys[m]
	return ok
}

// ParseKey обратное к String.
func ParseKey(key string) (Method, error) {
	for m, k := range methodKeys {
		if k == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, key)
}

// Field поле черновика, которое зависит от способа доставки.
type Field string

const (
	FieldAddress        Field = "address"
	FieldMetroLine      Field = "metro_line"
	FieldMetroStation   Field = "metro_station"
	FieldPreferredTime  Field = "preferred_time"
	FieldTimeSlot       Field = "time_slot"
	FieldPostalFullName Field = "postal_full_name"
	FieldPostalPhone    Field = "postal_phone"
	FieldPostalAddress  Field = "postal_address"
	FieldPostalIndex    Field = "postal_index"
)

// MethodFields все поля, которые сбрасываются при смене способа доставки.
var MethodFields = []Field{
	FieldAddress,
	FieldMetroLine,
	FieldMetroStation,
	FieldPreferredTime,
	FieldTimeSlot,
	FieldPostalFullName,
	FieldPostalPhone,
	FieldPostalAddress,
	FieldPostalIndex,
}

// ParseField проверяет, что имя поля из закрытого множества.
func ParseField(name string) (Field, error) {
	for _, f := range MethodFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", name)
}

// MarshalText в JSON метод уходит машинным ключом.
func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
