package payment

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// EMV field ids used by the PIX BR Code.
const (
	idPayloadFormat        = "00"
	idPointOfInitiation    = "01"
	idMerchantAccount      = "26"
	idMerchantAccountGUI   = "00"
	idMerchantAccountURL   = "25"
	idMerchantCategoryCode = "52"
	idTransactionCurrency  = "53"
	idTransactionAmount    = "54"
	idCountryCode          = "58"
	idMerchantName         = "59"
	idMerchantCity         = "60"
	idAdditionalData       = "62"
	idAdditionalTxID       = "05"
	idCRC                  = "63"

	pixGUI          = "br.gov.bcb.pix"
	currencyBRL     = "986"
	maxNameLength   = 25
	maxCityLength   = 15
	maxTxIDLength   = 25
	maxFieldLength  = 99
	dynamicPayload  = "12"
	payloadVersion  = "01"
	categoryUnknown = "0000"
)

// BRCode describes a dynamic PIX charge.
type BRCode struct {
	MerchantName string
	MerchantCity string
	LocationURL  string
	Amount       decimal.Decimal
	TxID         string
}

// Encode renders the copy-and-paste payload, closed by its CRC16 field.
func (c BRCode) Encode() (string, error) {
	account, err := joinFields(
		field{idMerchantAccountGUI, pixGUI},
		field{idMerchantAccountURL, c.LocationURL},
	)
	if err != nil {
		return "", err
	}

	additional, err := joinFields(field{idAdditionalTxID, sanitize(c.TxID, maxTxIDLength, "***")})
	if err != nil {
		return "", err
	}

	body, err := joinFields(
		field{idPayloadFormat, payloadVersion},
		field{idPointOfInitiation, dynamicPayload},
		field{idMerchantAccount, account},
		field{idMerchantCategoryCode, categoryUnknown},
		field{idTransactionCurrency, currencyBRL},
		field{idTransactionAmount, c.Amount.StringFixed(2)},
		field{idCountryCode, "BR"},
		field{idMerchantName, clip(c.MerchantName, maxNameLength)},
		field{idMerchantCity, clip(c.MerchantCity, maxCityLength)},
		field{idAdditionalData, additional},
	)
	if err != nil {
		return "", err
	}

	// The checksum covers the CRC field's own id and length.
	body += idCRC + "04"
	return body + fmt.Sprintf("%04X", CRC16(body)), nil
}

type field struct {
	id    string
	value string
}

func joinFields(fields ...field) (string, error) {
	var b strings.Builder
	for _, f := range fields {
		if len(f.value) > maxFieldLength {
			return "", fmt.Errorf("brcode field %s exceeds %d bytes", f.id, maxFieldLength)
		}
		fmt.Fprintf(&b, "%s%02d%s", f.id, len(f.value), f.value)
	}
	return b.String(), nil
}

// clip keeps the first n runes that are printable ASCII.
func clip(s string, n int) string {
	var b strings.Builder
	count := 0
	for _, r := range s {
		if count == n {
			break
		}
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			continue
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

// sanitize reduces s to at most n alphanumerics, falling back when nothing
// is left.
func sanitize(s string, n int, fallback string) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == n {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// CRC16 is CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF), the checksum the
// BR Code requires.
func CRC16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
