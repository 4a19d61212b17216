package onfi

import (
	"testing"

	"github.com/sigurn/crc16"
)

// bitwiseCRC is the unoptimised MSB-first CRC-16 over polynomial 0x8005.
func bitwiseCRC(data []byte) uint16 {
	crc := uint16(0x4f4e)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x8005
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func TestCRCParams(t *testing.T) {
	if got := crc16.Checksum([]byte("123456789"), onfiCRC); got != CRCParams.Check {
		t.Errorf("check value = %#04x, want %#04x", got, CRCParams.Check)
	}
	if got := crc16.Checksum(nil, onfiCRC); got != 0x4f4e {
		t.Errorf("empty input = %#04x, want the seed", got)
	}

	pp := DefaultImageSpec().ParamPage()
	want := bitwiseCRC(pp[:ParamPageCRCLen])
	if got := uint16(FieldCRC.Uint(pp)); got != want {
		t.Errorf("sealed CRC = %#04x, bitwise reference %#04x", got, want)
	}
}
