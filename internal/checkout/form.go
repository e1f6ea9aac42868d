package checkout

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogazub/miniapp-checkout/internal/delivery"
	"github.com/gogazub/miniapp-checkout/internal/model"
	"github.com/shopspring/decimal"
)

// State состояние формы оформления.
type State int

const (
	StateLoading State = iota
	StateEditing
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Сообщения пользователю.
const (
	SuccessMessage   = "Заказ успешно оформлен!"
	FailureMessage   = "Ошибка создания заказа"
	CartErrorMessage = "Ошибка загрузки корзины"
	EmptyCartMessage = "Корзина пуста"
)

// Msg событие для Update. Множество закрыто.
type Msg interface {
	isMsg()
}

type (
	CartLoaded            struct{ Cart CartSnapshot }
	DeliveryMethodChanged struct{ Method delivery.Method }
	MetroLineChanged      struct{ Line string }
	FieldChanged          struct {
		Field delivery.Field
		Value string
	}
	PaymentChanged   struct{ Payment Payment }
	PromoCodeChanged struct{ Code string }
)

func (CartLoaded) isMsg()            {}
func (DeliveryMethodChanged) isMsg() {}
func (MetroLineChanged) isMsg()      {}
func (FieldChanged) isMsg()          {}
func (PaymentChanged) isMsg()        {}
func (PromoCodeChanged) isMsg()      {}

// Form черновик и все производное от него. Не потокобезопасна, доступ сериализует Session.
type Form struct {
	engine   *Engine
	state    State
	draft    Draft
	cart     CartSnapshot
	stations []string
	cost     decimal.Decimal
	message  string
	order    *model.Order
}

func (f *Form) State() State { return f.state }

func (f *Form) Draft() Draft { return f.draft }

func (f *Form) Cart() CartSnapshot { return f.cart }

func (f *Form) Message() string { return f.message }

func (f *Form) Order() *model.Order { return f.order }

// Stations станции выбранной линии, пусто пока линия не выбрана.
func (f *Form) Stations() []string { return slices.Clone(f.stations) }

func (f *Form) Subtotal() decimal.Decimal { return f.cart.Subtotal }

// DeliveryCost стоимость доставки для текущего способа и корзины.
func (f *Form) DeliveryCost() decimal.Decimal { return f.cost }

// FinalTotal всегда subtotal + стоимость доставки.
func (f *Form) FinalTotal() decimal.Decimal { return f.cart.Subtotal.Add(f.cost) }

// Descriptor описание текущего способа доставки.
func (f *Form) Descriptor() delivery.Descriptor {
	d, _ := f.engine.registry.Describe(f.draft.Method)
	return d
}

// Update применяет событие к черновику. Состояние меняется только в Editing, корзина принимается и в Loading.
func (f *Form) Update(msg Msg) error {
	switch f.state {
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateSubmitted:
		return ErrNotEditing
	case StateLoading:
		if _, ok := msg.(CartLoaded); !ok {
			return ErrNotEditing
		}
	}

	switch m := msg.(type) {
	case CartLoaded:
		f.cart = m.Cart
		f.state = StateEditing
		f.message = ""
	case DeliveryMethodChanged:
		if !m.Method.Valid() {
			return fmt.Errorf("%w: %v", delivery.ErrUnknownMethod, m.Method)
		}
		if m.Method == f.draft.Method {
			return nil
		}
		f.draft.Method = m.Method
		f.draft.clearMethodFields()
		f.stations = []string{}
	case MetroLineChanged:
		if !f.Descriptor().Requires(delivery.FieldMetroLine) {
			return ErrFieldNotUsed
		}
		f.draft.MetroLine = m.Line
		f.draft.MetroStation = ""
		f.stations = f.engine.metro.StationsFor(m.Line)
	case FieldChanged:
		if m.Field == delivery.FieldMetroLine {
			return f.Update(MetroLineChanged{Line: m.Value})
		}
		if !f.Descriptor().Requires(m.Field) {
			return ErrFieldNotUsed
		}
		f.draft.set(m.Field, m.Value)
	case PaymentChanged:
		if m.Payment != PaymentCash && m.Payment != PaymentCard {
			return fmt.Errorf("%w: unknown payment %q", model.ErrValidationRejected, m.Payment)
		}
		f.draft.Payment = m.Payment
	case PromoCodeChanged:
		f.draft.PromoCode = m.Code
	default:
		return fmt.Errorf("unknown message %T", msg)
	}
	f.recompute()
	return nil
}

func (f *Form) recompute() {
	cost, err := f.engine.registry.Cost(f.draft.Method, f.cart.Subtotal)
	if err != nil {
		cost = decimal.Zero
	}
	f.cost = cost
}

// Submit проверяет черновик и переводит форму в Submitting. Ошибка оставляет форму в Editing.
func (f *Form) Submit() (model.OrderRequest, error) {
	switch f.state {
	case StateSubmitting:
		return model.OrderRequest{}, ErrSubmitInFlight
	case StateEditing:
	default:
		return model.OrderRequest{}, ErrNotEditing
	}
	if f.cart.Empty() {
		f.message = EmptyCartMessage
		return model.OrderRequest{}, ErrEmptyCart
	}
	if err := f.engine.Validate(f.draft); err != nil {
		f.message = IncompleteMessage
		return model.OrderRequest{}, err
	}

	desc := f.Descriptor()
	req := model.OrderRequest{
		Payment:      string(f.draft.Payment),
		Delivery:     desc.Label,
		Address:      desc.ResolveAddress(f.draft.Get),
		PromoCode:    f.draft.PromoCode,
		DeliveryCost: f.cost,
	}
	for _, fld := range desc.RequiredFields {
		v := f.draft.Get(fld)
		switch fld {
		case delivery.FieldMetroLine:
			req.MetroLine = v
		case delivery.FieldMetroStation:
			req.MetroStation = v
		case delivery.FieldPreferredTime:
			req.PreferredTime = v
		case delivery.FieldTimeSlot:
			req.TimeSlot = v
		case delivery.FieldPostalFullName:
			req.PostalFullName = v
		case delivery.FieldPostalPhone:
			req.PostalPhone = v
		case delivery.FieldPostalAddress:
			req.PostalAddress = v
		case delivery.FieldPostalIndex:
			req.PostalIndex = v
		}
	}

	f.state = StateSubmitting
	f.message = ""
	return req, nil
}

// Complete бэкенд принял заказ. Черновик больше не нужен.
func (f *Form) Complete(order model.Order) {
	f.state = StateSubmitted
	f.order = &order
	f.message = SuccessMessage
}

// Fail отправка не удалась, возвращаемся к редактированию с сохраненным черновиком.
func (f *Form) Fail(err error) {
	f.state = StateEditing
	f.message = UserMessage(err)
}

// detailer ошибка, которая несет текст от бэкенда.
type detailer interface {
	UserDetail() string
}

// UserMessage текст ошибки для пользователя: деталь 4xx от бэкенда, иначе общее сообщение.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrIncompleteDraft) {
		return IncompleteMessage
	}
	if errors.Is(err, ErrEmptyCart) {
		return EmptyCartMessage
	}
	if errors.Is(err, model.ErrValidationRejected) {
		var d detailer
		if errors.As(err, &d) && d.UserDetail() != "" {
			return d.UserDetail()
		}
	}
	return FailureMessage
}

// View снимок формы для отдачи наружу.
type View struct {
	State          State            `json:"state"`
	Draft          Draft            `json:"draft"`
	Cart           CartSnapshot     `json:"cart"`
	DeliveryLabel  string           `json:"delivery_label"`
	RequiredFields []delivery.Field `json:"required_fields"`
	FixedAddress   string           `json:"fixed_address,omitempty"`
	Info           string           `json:"info,omitempty"`
	Stations       []string         `json:"metro_stations"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
	DeliveryCost   decimal.Decimal  `json:"delivery_cost"`
	FinalTotal     decimal.Decimal  `json:"final_total"`
	Message        string           `json:"message,omitempty"`
	Order          *model.Order     `json:"order,omitempty"`
}

func (f *Form) View() View {
	desc := f.Descriptor()
	return View{
		State:          f.state,
		Draft:          f.draft,
		Cart:           f.cart,
		DeliveryLabel:  desc.Label,
		RequiredFields: desc.RequiredFields,
		FixedAddress:   desc.FixedAddressText,
		Info:           desc.InfoText,
		Stations:       f.Stations(),
		Subtotal:       f.Subtotal(),
		DeliveryCost:   f.cost,
		FinalTotal:     f.FinalTotal(),
		Message:        f.message,
		Order:          f.order,
	}
}
