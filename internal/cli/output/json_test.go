package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type skuRecord struct {
	SkuPartNumber string `json:"skuPartNumber"`
	Consumed      int    `json:"consumedUnits"`
}

func TestPrintJSON(t *testing.T) {
	data := skuRecord{SkuPartNumber: "ENTERPRISEPACK", Consumed: 80}

	var buf bytes.Buffer
	err := PrintJSON(&buf, data)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `"skuPartNumber": "ENTERPRISEPACK"`)
	assert.Contains(t, output, `"consumedUnits": 80`)
}

func TestPrintJSONCompact(t *testing.T) {
	data := skuRecord{SkuPartNumber: "ENTERPRISEPACK", Consumed: 80}

	var buf bytes.Buffer
	err := PrintJSONCompact(&buf, data)
	require.NoError(t, err)

	output := buf.String()
	// Compact JSON should not have extra indentation
	assert.Contains(t, output, `"skuPartNumber":"ENTERPRISEPACK"`)
	assert.Contains(t, output, `"consumedUnits":80`)
}

func TestPrintJSONArray(t *testing.T) {
	data := []skuRecord{
		{SkuPartNumber: "ENTERPRISEPACK", Consumed: 80},
		{SkuPartNumber: "ENTERPRISEPREMIUM", Consumed: 50},
	}

	var buf bytes.Buffer
	err := PrintJSON(&buf, data)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `"skuPartNumber": "ENTERPRISEPACK"`)
	assert.Contains(t, output, `"skuPartNumber": "ENTERPRISEPREMIUM"`)
}
