package delivery

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// AddressKind откуда берется итоговый адрес заказа.
type AddressKind int

const (
	// AddressFromInput адрес вводит пользователь
	AddressFromInput AddressKind = iota
	// AddressFixed адрес фиксированный, из конфига
	AddressFixed
	// AddressMetro адрес собирается из линии и станции
	AddressMetro
	// AddressNone адрес не нужен, получатель в почтовых полях
	AddressNone
)

// MetroAddressFormat итоговый адрес для доставки к метро.
const MetroAddressFormat = "%s - %s (Метро)"

// Descriptor все, что форма должна знать о способе доставки.
type Descriptor struct {
	Method           Method
	Label            string
	RequiredFields   []Field
	FixedAddressText string
	InfoText         string
	AddressKind      AddressKind
	Cost             CostRule
}

// Requires входит ли поле в обязательные для этого способа.
func (d Descriptor) Requires(f Field) bool {
	return slices.Contains(d.RequiredFields, f)
}

// ResolveAddress итоговый адрес для отправки. get читает поле черновика.
func (d Descriptor) ResolveAddress(get func(Field) string) string {
	switch d.AddressKind {
	case AddressFixed:
		return d.FixedAddressText
	case AddressMetro:
		return fmt.Sprintf(MetroAddressFormat, get(FieldMetroLine), get(FieldMetroStation))
	case AddressNone:
		return ""
	default:
		return get(FieldAddress)
	}
}

// Fee стоимость доставки для суммы корзины, никогда не отрицательная.
func (d Descriptor) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if d.Cost == nil {
		return decimal.Zero
	}
	return nonNegative(d.Cost.Fee(subtotal))
}

var requiredFields = map[Method][]Field{
	CourierToAddress:  {FieldAddress, FieldTimeSlot},
	SelfPickup:        {FieldPreferredTime},
	ToMetroStation:    {FieldMetroLine, FieldMetroStation, FieldPreferredTime},
	ThirdPartyCourier: {FieldAddress, FieldPreferredTime},
	PostalServiceA:    {FieldPostalFullName, FieldPostalPhone, FieldPostalAddress, FieldPostalIndex},
	PostalServiceB:    {FieldPostalFullName, FieldPostalPhone, FieldPostalAddress, FieldPostalIndex},
}

var addressKinds = map[Method]AddressKind{
	CourierToAddress:  AddressFromInput,
	SelfPickup:        AddressFixed,
	ToMetroStation:    AddressMetro,
	ThirdPartyCourier: AddressFromInput,
	PostalServiceA:    AddressNone,
	PostalServiceB:    AddressNone,
}

// Registry справочник способов доставки. После создания не меняется, безопасен для конкурентного чтения.
type Registry struct {
	descriptors map[Method]Descriptor
	order       []Method
}

// NewRegistry собирает справочник: подписи и тексты из cfg, поля и тарифы из кода.
func NewRegistry(cfg Config) (*Registry, error) {
	r := &Registry{
		descriptors: make(map[Method]Descriptor, len(allMethods)),
		order:       slices.Clone(allMethods),
	}
	for _, m := range allMethods {
		mc, ok := cfg.Methods[m.String()]
		if !ok {
			return nil, fmt.Errorf("delivery config: method %q is not described", m)
		}
		if mc.Label == "" {
			return nil, fmt.Errorf("delivery config: method %q has empty label", m)
		}
		kind := addressKinds[m]
		if kind == AddressFixed && mc.FixedAddress == "" {
			return nil, fmt.Errorf("delivery config: method %q needs fixed_address", m)
		}
		r.descriptors[m] = Descriptor{
			Method:           m,
			Label:            mc.Label,
			RequiredFields:   slices.Clone(requiredFields[m]),
			FixedAddressText: mc.FixedAddress,
			InfoText:         mc.Info,
			AddressKind:      kind,
			Cost:             defaultRules[m],
		}
	}
	for key := range cfg.Methods {
		if _, err := ParseKey(key); err != nil {
			return nil, fmt.Errorf("delivery config: %w", err)
		}
	}
	return r, nil
}

// DefaultRegistry справочник из встроенного конфига.
func DefaultRegistry() *Registry {
	cfg, err := LoadConfig("")
	if err != nil {
		panic(fmt.Sprintf("embedded delivery config: %v", err))
	}
	r, err := NewRegistry(cfg)
	if err != nil {
		panic(fmt.Sprintf("embedded delivery config: %v", err))
	}
	return r
}

// Describe описание способа доставки. ErrUnknownMethod для значения вне множества.
func (r *Registry) Describe(m Method) (Descriptor, error) {
	d, ok := r.descriptors[m]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrUnknownMethod, m)
	}
	d.RequiredFields = slices.Clone(d.RequiredFields)
	return d, nil
}

// Methods все способы в порядке объявления.
func (r *Registry) Methods() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, m := range r.order {
		d, _ := r.Describe(m)
		out = append(out, d)
	}
	return out
}

// Lookup способ доставки по подписи (ее же бэкенд хранит в заказе) или по машинному ключу.
func (r *Registry) Lookup(labelOrKey string) (Method, error) {
	for _, m := range r.order {
		if r.descriptors[m].Label == labelOrKey || m.String() == labelOrKey {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, labelOrKey)
}

// Cost стоимость доставки способом m.
func (r *Registry) Cost(m Method, subtotal decimal.Decimal) (decimal.Decimal, error) {
	d, err := r.Describe(m)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Fee(subtotal), nil
}
