package delivery

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireCost(t *testing.T, m Method, subtotal string, want int64) {
	t.Helper()
	got, err := Cost(m, d(subtotal))
	require.NoError(t, err)
	assert.Truef(t, got.Equal(decimal.NewFromInt(want)), "cost(%v, %s) = %s; want %d", m, subtotal, got, want)
}

func TestCost_Courier(t *testing.T) {
	for _, s := range []string{"0", "0.01", "50", "79", "79.99"} {
		requireCost(t, CourierToAddress, s, 8)
	}
	for _, s := range []string{"80", "80.00", "80.01", "100", "100000"} {
		requireCost(t, CourierToAddress, s, 0)
	}
}

func TestCost_Flat(t *testing.T) {
	for _, s := range []string{"0", "10", "79.99", "80", "500"} {
		requireCost(t, PostalServiceA, s, 5)
		requireCost(t, PostalServiceB, s, 3)
		requireCost(t, SelfPickup, s, 0)
		requireCost(t, ToMetroStation, s, 0)
		requireCost(t, ThirdPartyCourier, s, 0)
	}
}

func TestCost_UnknownMethod(t *testing.T) {
	_, err := Cost(Method(42), d("10"))
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestRegistry_MatchesPackageCost(t *testing.T) {
	r := DefaultRegistry()
	for _, m := range allMethods {
		for _, s := range []string{"0", "79.99", "80", "120"} {
			want, err := Cost(m, d(s))
			require.NoError(t, err)
			got, err := r.Cost(m, d(s))
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "%v %s", m, s)
		}
	}
}

func TestRegistry_Describe(t *testing.T) {
	r := DefaultRegistry()

	t.Run("courier требует адрес и интервал", func(t *testing.T) {
		desc, err := r.Describe(CourierToAddress)
		require.NoError(t, err)
		assert.Equal(t, "Курьером", desc.Label)
		assert.Equal(t, []Field{FieldAddress, FieldTimeSlot}, desc.RequiredFields)
		assert.Empty(t, desc.FixedAddressText)
	})

	t.Run("pickup имеет фиксированный адрес", func(t *testing.T) {
		desc, err := r.Describe(SelfPickup)
		require.NoError(t, err)
		assert.NotEmpty(t, desc.FixedAddressText)
		assert.True(t, desc.Requires(FieldPreferredTime))
		assert.False(t, desc.Requires(FieldAddress))
	})

	t.Run("metro", func(t *testing.T) {
		desc, err := r.Describe(ToMetroStation)
		require.NoError(t, err)
		assert.Equal(t, []Field{FieldMetroLine, FieldMetroStation, FieldPreferredTime}, desc.RequiredFields)
	})

	t.Run("postal", func(t *testing.T) {
		for _, m := range []Method{PostalServiceA, PostalServiceB} {
			desc, err := r.Describe(m)
			require.NoError(t, err)
			assert.Len(t, desc.RequiredFields, 4)
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := r.Describe(Method(0))
		require.True(t, errors.Is(err, ErrUnknownMethod))
	})

	t.Run("вызывающий не может испортить справочник", func(t *testing.T) {
		desc, _ := r.Describe(CourierToAddress)
		desc.RequiredFields[0] = FieldPostalIndex
		again, _ := r.Describe(CourierToAddress)
		assert.Equal(t, FieldAddress, again.RequiredFields[0])
	})
}

func TestRegistry_MethodsOrderAndLookup(t *testing.T) {
	r := DefaultRegistry()
	methods := r.Methods()
	require.Len(t, methods, 6)
	assert.Equal(t, CourierToAddress, methods[0].Method)
	assert.Equal(t, PostalServiceB, methods[5].Method)

	m, err := r.Lookup("По метро")
	require.NoError(t, err)
	assert.Equal(t, ToMetroStation, m)

	m, err = r.Lookup("postal_a")
	require.NoError(t, err)
	assert.Equal(t, PostalServiceA, m)

	_, err = r.Lookup("Телепорт")
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestDescriptor_ResolveAddress(t *testing.T) {
	r := DefaultRegistry()
	values := map[Field]string{
		FieldAddress:      "Str 1",
		FieldMetroLine:    "Line A",
		FieldMetroStation: "Station 3",
		FieldPostalIndex:  "220000",
	}
	get := func(f Field) string { return values[f] }

	courier, _ := r.Describe(CourierToAddress)
	assert.Equal(t, "Str 1", courier.ResolveAddress(get))

	metro, _ := r.Describe(ToMetroStation)
	assert.Equal(t, "Line A - Station 3 (Метро)", metro.ResolveAddress(get))

	pickup, _ := r.Describe(SelfPickup)
	assert.Equal(t, pickup.FixedAddressText, pickup.ResolveAddress(get))

	postal, _ := r.Describe(PostalServiceA)
	assert.Empty(t, postal.ResolveAddress(get))
}

func TestNewRegistry_ConfigErrors(t *testing.T) {
	t.Run("нет описания метода", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("methods:\n  courier:\n    label: Курьером\n"))
		require.NoError(t, err)
		_, err = NewRegistry(cfg)
		require.Error(t, err)
	})

	t.Run("лишний метод", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		cfg.Methods["drone"] = MethodConfig{Label: "Дрон"}
		_, err = NewRegistry(cfg)
		require.ErrorIs(t, err, ErrUnknownMethod)
	})

	t.Run("самовывоз без адреса", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		pickup := cfg.Methods["pickup"]
		pickup.FixedAddress = ""
		cfg.Methods["pickup"] = pickup
		_, err = NewRegistry(cfg)
		require.Error(t, err)
	})

	t.Run("битый yaml", func(t *testing.T) {
		_, err := ParseConfig([]byte("methods: [oops"))
		require.Error(t, err)
	})
}

func TestParseFieldAndKey(t *testing.T) {
	f, err := ParseField("postal_index")
	require.NoError(t, err)
	assert.Equal(t, FieldPostalIndex, f)

	_, err = ParseField("payment")
	require.Error(t, err)

	m, err := ParseKey("pickup")
	require.NoError(t, err)
	assert.Equal(t, SelfPickup, m)
	assert.Equal(t, "pickup", m.String())
	assert.False(t, Method(99).Valid())
}
