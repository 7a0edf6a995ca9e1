package tabular

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCSV(t *testing.T) {
	in := "\xEF\xBB\xBFInvoice,Customer,Amount,Days Outstanding\n" +
		"INV-001, Acme ,\"12,500\",95\n" +
		",,,\n" +
		"INV-002,Globex,8000\n"

	tbl, err := DecodeCSV("ar.csv", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "ar.csv", tbl.Name)
	assert.Equal(t, []string{"Invoice", "Customer", "Amount", "Days Outstanding"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"INV-001", "Acme", "12,500", "95"}, tbl.Rows[0])
	assert.Equal(t, []string{"INV-002", "Globex", "8000"}, tbl.Rows[1], "ragged rows kept")
}

func TestDecodeCSVSemicolon(t *testing.T) {
	tbl, err := DecodeCSV("eu.csv", strings.NewReader("Kostenstelle;Betrag\nA;1.200\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Kostenstelle", "Betrag"}, tbl.Headers)
	assert.Equal(t, [][]string{{"A", "1.200"}}, tbl.Rows)
}

func TestDecodeCSVHeaderOnly(t *testing.T) {
	tbl, err := DecodeCSV("h.csv", strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.True(t, tbl.Empty())
}

func TestDecodeCSVEmpty(t *testing.T) {
	_, err := DecodeCSV("blank.csv", strings.NewReader("\n\n , \n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptySheet))
}
