package checkout

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gogazub/miniapp-checkout/internal/delivery"
	"github.com/gogazub/miniapp-checkout/internal/metro"
	"github.com/gogazub/miniapp-checkout/internal/model"
)

// IncompleteMessage единственное сообщение о незаполненных полях. Какое именно поле пусто, не сообщаем.
const IncompleteMessage = "Заполните все обязательные поля"

var (
	ErrIncompleteDraft = fmt.Errorf("%w: %s", model.ErrValidationRejected, IncompleteMessage)
	ErrEmptyCart       = fmt.Errorf("%w: cart is empty", model.ErrValidationRejected)
	ErrSubmitInFlight  = errors.New("submit already in flight")
	ErrNotEditing      = errors.New("form is not editable")
	ErrFieldNotUsed    = fmt.Errorf("%w: field is not used by delivery method", model.ErrValidationRejected)
)

// Engine неизменяемые правила оформления: справочники и валидатор. Одна на процесс.
type Engine struct {
	registry *delivery.Registry
	metro    *metro.Lookup
	validate *validator.Validate
}

// NewEngine собирает правила. Валидатор проверяет обязательные поля по способу доставки.
func NewEngine(registry *delivery.Registry, lookup *metro.Lookup) *Engine {
	e := &Engine{
		registry: registry,
		metro:    lookup,
		validate: model.NewValidator(),
	}
	e.validate.RegisterStructValidation(e.validateDraft, Draft{})
	return e
}

func (e *Engine) Registry() *delivery.Registry { return e.registry }

func (e *Engine) Metro() *metro.Lookup { return e.metro }

func (e *Engine) validateDraft(sl validator.StructLevel) {
	d, ok := sl.Current().Interface().(Draft)
	if !ok {
		return
	}
	desc, err := e.registry.Describe(d.Method)
	if err != nil {
		sl.ReportError(d.Method, "Method", "delivery", "delivery_method", "")
		return
	}
	for _, f := range d.missing(desc) {
		sl.ReportError(d.Get(f), string(f), string(f), "required", "")
	}
	if desc.AddressKind == delivery.AddressMetro && d.MetroLine != "" && d.MetroStation != "" &&
		!e.metro.HasStation(d.MetroLine, d.MetroStation) {
		sl.ReportError(d.MetroStation, "MetroStation", string(delivery.FieldMetroStation), "metro_station", d.MetroLine)
	}
}

// Validate ErrIncompleteDraft на любую проблему черновика, без уточнений.
func (e *Engine) Validate(d Draft) error {
	if err := e.validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return ErrIncompleteDraft
		}
		return err
	}
	return nil
}

// NewForm форма в состоянии Loading: ждет корзину.
func (e *Engine) NewForm() *Form {
	return &Form{
		engine: e,
		state:  StateLoading,
		draft: Draft{
			Method:  delivery.CourierToAddress,
			Payment: PaymentCash,
		},
		stations: []string{},
	}
}
