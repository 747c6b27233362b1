package csvparser

import (
	"errors"
	"testing"

	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_EncodingTrialOrder(t *testing.T) {
	tests := []struct {
		name         string
		data         []byte
		wantEncoding string
		wantCell     string
	}{
		{
			name:         "utf-8 with signature",
			data:         append([]byte{0xEF, 0xBB, 0xBF}, []byte("2024-03-01,Café,4.50,\n")...),
			wantEncoding: "utf-8-sig",
			wantCell:     "Café",
		},
		{
			name:         "plain utf-8",
			data:         []byte("2024-03-01,Café,4.50,\n"),
			wantEncoding: "utf-8",
			wantCell:     "Café",
		},
		{
			name:         "windows-1252 curly quote and accent",
			data:         []byte("2024-03-01,Caf\xe9 \x93Le Bon\x94,4.50,\n"),
			wantEncoding: "windows-1252",
			wantCell:     "Café “Le Bon”",
		},
		{
			name:         "latin-1 when windows-1252 has undefined bytes",
			data:         []byte("2024-03-01,Caf\xe9\x81,4.50,\n"),
			wantEncoding: "latin-1",
			wantCell:     "Café\u0081",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := NewDecoder(nil).Decode("statement.csv", tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEncoding, decoded.Encoding)
			require.Len(t, decoded.Rows, 1)
			assert.Equal(t, tt.wantCell, decoded.Rows[0].Fields[1])
		})
	}
}

func TestDecoder_AllEncodingsFail(t *testing.T) {
	failing := func(name string) Encoding {
		return Encoding{Name: name, Decode: func([]byte) (string, error) { return "", errors.New("nope") }}
	}
	decoder := NewDecoder(nil, WithEncodings(failing("a"), failing("b")))

	decoded, err := decoder.Decode("bad.csv", []byte("anything"))
	assert.Nil(t, decoded)

	var decodeErr *parsererror.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, []string{"a", "b"}, decodeErr.Tried)
	assert.Contains(t, err.Error(), "re-save as CSV UTF-8")
}

func TestDecoder_EmptyFile(t *testing.T) {
	for _, data := range []string{"", "\n\n", " , , \n,,\n"} {
		_, err := NewDecoder(nil).Decode("empty.csv", []byte(data))
		var formatErr *parsererror.InvalidFormatError
		assert.True(t, errors.As(err, &formatErr), "data %q", data)
	}
}

func TestDecoder_HeaderlessLayout(t *testing.T) {
	data := "2024-03-01,TIM HORTONS #123,4.50,\n\n2024-03-02,,,500.00,extra\n"
	logger := logging.NewMockLogger()

	decoded, err := NewDecoder(logger).Decode("cibc.csv", []byte(data))
	require.NoError(t, err)

	assert.Equal(t, FormatHeaderless, decoded.Format)
	assert.Equal(t, HeaderlessMapping(), decoded.Mapping)
	assert.Nil(t, decoded.Header)
	require.Len(t, decoded.Rows, 2)
	assert.Equal(t, []string{"2024-03-01", "TIM HORTONS #123", "4.50", ""}, decoded.Rows[0].Fields)
	assert.Equal(t, 1, decoded.Rows[0].Line)
	assert.Equal(t, 3, decoded.Rows[1].Line)
	assert.Len(t, logger.EntriesByLevel("DEBUG"), 1)
}

func TestDecoder_HeaderDetection(t *testing.T) {
	data := "Transaction Date,Description,Merchant Name,Debit,Credit,Category\n" +
		"2024-03-01,POS PURCHASE,Starbucks,5.25,,Dining\n"

	decoded, err := NewDecoder(nil).Decode("bank.csv", []byte(data))
	require.NoError(t, err)

	assert.Equal(t, FormatHeader, decoded.Format)
	assert.Equal(t, 1, decoded.HeaderLine)
	assert.Equal(t, ColumnMapping{
		Date: 0, Description: 1, Vendor: 2, Debit: 3, Credit: 4, Category: 5, Amount: Unmapped,
	}, decoded.Mapping)
	require.Len(t, decoded.Rows, 1)
	assert.Equal(t, 2, decoded.Rows[0].Line)
}

func TestDecoder_HeaderAfterPreamble(t *testing.T) {
	data := "Account,12345\nExported,2024-04-01\n\nDate,Details,Amount\n2024-03-01,METRO #55,-23.10\n"

	decoded, err := NewDecoder(nil).Decode("preamble.csv", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, FormatHeader, decoded.Format)
	assert.Equal(t, 2, decoded.Preamble)
	assert.Equal(t, 0, decoded.Mapping.Date)
	assert.Equal(t, 1, decoded.Mapping.Description)
	assert.Equal(t, 2, decoded.Mapping.Amount)
	require.Len(t, decoded.Rows, 1)
}

func TestDecoder_HeaderScanLimit(t *testing.T) {
	data := "junk\njunk\nDate,Amount,Memo\n2024-03-01,1.00,x\n"
	decoded, err := NewDecoder(nil, WithHeaderScanRows(2)).Decode("f.csv", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, FormatHeader, decoded.Format)
	assert.Equal(t, []string{"junk"}, decoded.Header)
	assert.True(t, decoded.Mapping.IsEmpty())
	assert.Len(t, decoded.Rows, 3)
}

func TestDecoder_HeaderNeedsDescription(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantMapping ColumnMapping
	}{
		{
			name: "unknown amount column name",
			data: "Date,Description,Value\n2024-03-01,PAYROLL,1000.00\n",
			wantMapping: ColumnMapping{
				Date: 0, Description: 1, Amount: Unmapped, Debit: Unmapped, Credit: Unmapped, Vendor: Unmapped, Category: Unmapped,
			},
		},
		{
			name: "no description column",
			data: "Date,Amount\n2024-03-01,1000.00\n",
			wantMapping: ColumnMapping{
				Date: 0, Amount: 1, Description: Unmapped, Debit: Unmapped, Credit: Unmapped, Vendor: Unmapped, Category: Unmapped,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := NewDecoder(nil).Decode("bank.csv", []byte(tt.data))
			require.NoError(t, err)

			assert.Equal(t, FormatHeader, decoded.Format, "a first row that is not a date is never data")
			assert.Equal(t, 1, decoded.HeaderLine)
			assert.Equal(t, tt.wantMapping, decoded.Mapping)
			require.Len(t, decoded.Rows, 1)
			assert.Equal(t, "2024-03-01", decoded.Rows[0].Fields[0])
		})
	}
}

func TestDecoder_HeaderlessOnlyWhenFirstRowIsDated(t *testing.T) {
	decoded, err := NewDecoder(nil).Decode("cibc.csv", []byte("03/01/2024,PAYROLL,,1000.00\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatHeaderless, decoded.Format)
	assert.Equal(t, HeaderlessMapping(), decoded.Mapping)
	require.Len(t, decoded.Rows, 1)
}

func TestDecoder_SemicolonDelimiter(t *testing.T) {
	data := "Date;Description;Amount\n2024-03-01;\"Boulangerie; Paris\";-3,20\n"
	decoded, err := NewDecoder(nil).Decode("eu.csv", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, ';', decoded.Delimiter)
	require.Len(t, decoded.Rows, 1)
	assert.Equal(t, "Boulangerie; Paris", decoded.Rows[0].Fields[1])
	assert.Equal(t, "-3,20", decoded.Rows[0].Fields[2])
}

func TestDecoder_PreservesRowOrder(t *testing.T) {
	data := "Date,Description,Amount\n2024-03-05,c,1\n2024-03-01,a,1\n2024-03-03,b,1\n"
	decoded, err := NewDecoder(nil).Decode("order.csv", []byte(data))
	require.NoError(t, err)

	var descriptions []string
	for _, row := range decoded.Rows {
		descriptions = append(descriptions, row.Fields[1])
	}
	assert.Equal(t, []string{"c", "a", "b"}, descriptions)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', SniffDelimiter("a,b,c"))
	assert.Equal(t, ';', SniffDelimiter("\n\na;b;c"))
	assert.Equal(t, '\t', SniffDelimiter("a\tb\tc,d"))
	assert.Equal(t, ',', SniffDelimiter("\"a;b;c\",d"))
	assert.Equal(t, ',', SniffDelimiter(""))
}
