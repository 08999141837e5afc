package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayAmountScalesByCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		currency string
		want     string
	}{
		{name: "two decimal places", amount: 5000, currency: "CHF", want: "50.00"},
		{name: "sub unit remainder", amount: 1999, currency: "EUR", want: "19.99"},
		{name: "zero decimal currency", amount: 5000, currency: "JPY", want: "5000"},
		{name: "three decimal currency", amount: 12345, currency: "BHD", want: "12.345"},
		{name: "lower case currency code", amount: 250, currency: "chf", want: "2.50"},
		{name: "unknown currency defaults to two", amount: 100, currency: "XXX", want: "1.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gatewayAmount(tt.amount, tt.currency)
			require.NoError(t, err)
			text, err := got.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(text))
		})
	}
}
