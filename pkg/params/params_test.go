package params_test

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mbalug7/go-semtech-lora/pkg/params"
)

func TestEncodeFrequency(t *testing.T) {
	testCases := []struct {
		desc   string
		family params.Family
		hz     uint32
		want   []byte
	}{
		{desc: "sx126x 915MHz", family: params.SX126x, hz: 915_000_000, want: []byte{0x39, 0x30, 0x00, 0x00}},
		{desc: "sx126x 868MHz", family: params.SX126x, hz: 868_000_000, want: []byte{0x36, 0x40, 0x00, 0x00}},
		{desc: "sx126x 0Hz", family: params.SX126x, hz: 0, want: []byte{0, 0, 0, 0}},
		{desc: "sx128x 2.4GHz", family: params.SX128x, hz: 2_400_000_000, want: []byte{0xB8, 0x9D, 0x8A}},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			got := params.EncodeFrequency(tC.family, tC.hz)
			if !bytes.Equal(got, tC.want) {
				t.Errorf("got % x, expected % x", got, tC.want)
			}
		})
	}
}

func TestFrequencyRoundTrip(t *testing.T) {
	testCases := []struct {
		family   params.Family
		from, to uint32
	}{
		{family: params.SX126x, from: 150_000_000, to: 960_000_000},
		{family: params.SX128x, from: 2_400_000_000, to: 2_500_000_000},
	}
	for _, tC := range testCases {
		t.Run(tC.family.String(), func(t *testing.T) {
			step := params.FrequencyStep(tC.family)
			for hz := tC.from; hz <= tC.to; hz += 997_331 {
				raw := params.EncodeFrequency(tC.family, hz)
				back := params.DecodeFrequency(tC.family, raw)
				if diff := math.Abs(float64(back) - float64(hz)); diff > step {
					t.Fatalf("%d Hz decoded to %d Hz, off by %.1f Hz, step %.1f Hz", hz, back, diff, step)
				}
				again := params.EncodeFrequency(tC.family, back)
				if d := toInt(raw) - toInt(again); d < -1 || d > 1 {
					t.Fatalf("%d Hz: % x re-encoded to % x", hz, raw, again)
				}
			}
		})
	}
}

func toInt(b []byte) int64 {
	var v int64
	for _, x := range b {
		v = v<<8 | int64(x)
	}
	return v
}

func TestEncodeTimeout(t *testing.T) {
	testCases := []struct {
		desc   string
		family params.Family
		d      time.Duration
		want   [3]byte
	}{
		{desc: "sx126x zero", family: params.SX126x, d: 0, want: [3]byte{0, 0, 0}},
		{desc: "sx128x zero", family: params.SX128x, d: 0, want: [3]byte{0, 0, 0}},
		{desc: "sx126x one second", family: params.SX126x, d: time.Second, want: [3]byte{0x00, 0xFA, 0x00}},
		{desc: "sx128x one second", family: params.SX128x, d: time.Second, want: [3]byte{0x00, 0xFA, 0x00}},
		{desc: "sx126x rounds", family: params.SX126x, d: 23 * time.Microsecond, want: [3]byte{0, 0, 1}},
		{desc: "sx126x saturates", family: params.SX126x, d: time.Hour, want: [3]byte{0xFF, 0xFF, 0xFF}},
		{desc: "sx128x saturates", family: params.SX128x, d: 10 * time.Second, want: [3]byte{0x00, 0xFF, 0xFF}},
		{desc: "sx126x continuous", family: params.SX126x, d: params.ContinuousRx(params.SX126x), want: [3]byte{0xFF, 0xFF, 0xFF}},
		{desc: "sx128x continuous", family: params.SX128x, d: params.ContinuousRx(params.SX128x), want: [3]byte{0x00, 0xFF, 0xFF}},
		{desc: "negative", family: params.SX126x, d: -time.Second, want: [3]byte{0, 0, 0}},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			if got := params.EncodeTimeout(tC.family, tC.d); got != tC.want {
				t.Errorf("got % x, expected % x", got, tC.want)
			}
		})
	}
}

func TestEncodeTimeoutMonotonic(t *testing.T) {
	for _, family := range []params.Family{params.SX126x, params.SX128x} {
		var prev uint32
		for d := time.Duration(0); d < 2*time.Second; d += 7919 * time.Microsecond {
			b := params.EncodeTimeout(family, d)
			cur := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
			if cur < prev {
				t.Fatalf("%s: %s encoded to %d, below previous %d", family, d, cur, prev)
			}
			prev = cur
		}
	}
}

func TestEncodePreamble6x(t *testing.T) {
	for length := uint16(0); length < 10; length++ {
		if _, err := params.EncodePreamble6x(length); !errors.Is(err, params.ErrConfig) {
			t.Errorf("length %d: expected ErrConfig, got %v", length, err)
		}
	}
	for _, length := range []uint16{10, 12, 255, 256, 65535} {
		got, err := params.EncodePreamble6x(length)
		if err != nil {
			t.Fatalf("length %d: %s", length, err)
		}
		if want := [2]byte{byte(length >> 8), byte(length)}; got != want {
			t.Errorf("length %d: got % x, expected % x", length, got, want)
		}
	}
}

func TestEncodePreamble8x(t *testing.T) {
	testCases := []struct {
		length uint16
		want   byte
	}{
		{length: 0, want: 0x00},
		{length: 8, want: 0x08},
		{length: 12, want: 0x0C},
		{length: 15, want: 0x0F},
		{length: 16, want: 0x0F},
		{length: 1000, want: 0x0F},
	}
	for _, tC := range testCases {
		if got := params.EncodePreamble8x(tC.length); got != tC.want {
			t.Errorf("length %d: got 0x%02x, expected 0x%02x", tC.length, got, tC.want)
		}
	}
}

func TestSpreadingFactor(t *testing.T) {
	for sf := params.SF5; sf <= params.SF12; sf++ {
		got6x, err := sf.Encode(params.SX126x)
		if err != nil {
			t.Fatal(err)
		}
		got8x, err := sf.Encode(params.SX128x)
		if err != nil {
			t.Fatal(err)
		}
		if got6x != byte(sf) || got8x != byte(sf)<<4 {
			t.Errorf("SF%d: got 0x%02x / 0x%02x", sf, got6x, got8x)
		}
	}
	if _, err := params.SpreadingFactor(4).Encode(params.SX126x); !errors.Is(err, params.ErrConfig) {
		t.Errorf("SF4: expected ErrConfig, got %v", err)
	}
	if got := params.SF7.AdditionalConfig8x(); got != 0x37 {
		t.Errorf("SF7 additional config: got 0x%02x", got)
	}
	if got := params.SF12.AdditionalConfig8x(); got != 0x32 {
		t.Errorf("SF12 additional config: got 0x%02x", got)
	}
}

func TestFamilyEncodings(t *testing.T) {
	testCases := []struct {
		desc       string
		got, want6 byte
		got8       byte
		want8      byte
	}{
		{desc: "implicit header", got: params.HeaderImplicit.Encode(params.SX126x), want6: 0x01, got8: params.HeaderImplicit.Encode(params.SX128x), want8: 0x80},
		{desc: "explicit header", got: params.HeaderExplicit.Encode(params.SX126x), want6: 0x00, got8: params.HeaderExplicit.Encode(params.SX128x), want8: 0x00},
		{desc: "crc on", got: params.EncodeCRC(params.SX126x, true), want6: 0x01, got8: params.EncodeCRC(params.SX128x, true), want8: 0x20},
		{desc: "crc off", got: params.EncodeCRC(params.SX126x, false), want6: 0x00, got8: params.EncodeCRC(params.SX128x, false), want8: 0x00},
		{desc: "iq standard", got: params.IQStandard.Encode(params.SX126x), want6: 0x00, got8: params.IQStandard.Encode(params.SX128x), want8: 0x40},
		{desc: "iq inverted", got: params.IQInverted.Encode(params.SX126x), want6: 0x01, got8: params.IQInverted.Encode(params.SX128x), want8: 0x00},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			if tC.got != tC.want6 {
				t.Errorf("sx126x: got 0x%02x, expected 0x%02x", tC.got, tC.want6)
			}
			if tC.got8 != tC.want8 {
				t.Errorf("sx128x: got 0x%02x, expected 0x%02x", tC.got8, tC.want8)
			}
		})
	}
}

func TestCodingRate(t *testing.T) {
	if _, err := params.CRLI4_6.Encode(params.SX126x); !errors.Is(err, params.ErrConfig) {
		t.Errorf("LI coding rate on sx126x: expected ErrConfig, got %v", err)
	}
	got, err := params.CRLI4_8.Encode(params.SX128x)
	if err != nil || got != 0x07 {
		t.Errorf("LI 4/8 on sx128x: got 0x%02x, %v", got, err)
	}
	got, err = params.CR4_7.Encode(params.SX126x)
	if err != nil || got != 0x03 {
		t.Errorf("4/7 on sx126x: got 0x%02x, %v", got, err)
	}
}

func TestPower(t *testing.T) {
	for _, dbm := range []int8{-19, 14, 127} {
		if _, err := params.EncodePower8x(dbm); !errors.Is(err, params.ErrConfig) {
			t.Errorf("%d dBm: expected ErrConfig, got %v", dbm, err)
		}
	}
	if got, _ := params.EncodePower8x(-18); got != 0 {
		t.Errorf("-18 dBm: got %d", got)
	}
	if got, _ := params.EncodePower8x(13); got != 31 {
		t.Errorf("13 dBm: got %d", got)
	}
	duty, hpMax, err := params.Db22.PaConfig()
	if err != nil || duty != 0x04 || hpMax != 0x07 {
		t.Errorf("22 dBm PA config: got 0x%02x 0x%02x %v", duty, hpMax, err)
	}
	if _, _, err := params.OutputPower6x(0x10).PaConfig(); !errors.Is(err, params.ErrConfig) {
		t.Errorf("unknown power: expected ErrConfig, got %v", err)
	}
	if _, err := params.RampTime8x(0x81).Encode(); !errors.Is(err, params.ErrConfig) {
		t.Errorf("ramp 0x81: expected ErrConfig, got %v", err)
	}
}

func TestOpcodeTables(t *testing.T) {
	testCases := []struct {
		op     params.Opcode
		want6x byte
		want8x byte
		has8x  bool
	}{
		{op: params.WriteRegister, want6x: 0x0D, want8x: 0x18, has8x: true},
		{op: params.ReadBuffer, want6x: 0x1E, want8x: 0x1B, has8x: true},
		{op: params.SetDioIrqParams, want6x: 0x08, want8x: 0x8D, has8x: true},
		{op: params.ClearIrqStatus, want6x: 0x02, want8x: 0x97, has8x: true},
		{op: params.GetStatus, want6x: 0xC0, want8x: 0xC0, has8x: true},
		{op: params.GetStats, want6x: 0x10},
		{op: params.GetDeviceErrors, want6x: 0x17},
		{op: params.SetPaConfig, want6x: 0x95},
	}
	for _, tC := range testCases {
		t.Run(tC.op.String(), func(t *testing.T) {
			got, ok := params.Op(params.SX126x, tC.op)
			if !ok || got != tC.want6x {
				t.Errorf("sx126x: got 0x%02x %t", got, ok)
			}
			got, ok = params.Op(params.SX128x, tC.op)
			if ok != tC.has8x || got != tC.want8x {
				t.Errorf("sx128x: got 0x%02x %t", got, ok)
			}
		})
	}
	if _, ok := params.Reg(params.SX128x, params.RegTxModulation); ok {
		t.Error("sx128x must not have the tx modulation register")
	}
	if addr := params.MustReg(params.SX128x, params.RegFirmwareVersions); addr != 0x0153 {
		t.Errorf("firmware versions register: got 0x%04x", addr)
	}
}

func TestTimeOnAir(t *testing.T) {
	cfg := params.LoRa{
		SpreadingFactor: params.SF7,
		BandwidthHz:     params.BW125.Hertz(),
		CodingRate:      params.CR4_5,
		Header:          params.HeaderExplicit,
		CRC:             true,
		PreambleLength:  12,
	}
	got := params.TimeOnAir(cfg, 240)
	expect := (394500 * time.Microsecond).Seconds()
	if math.Abs(got.Seconds()-expect) > 10*expect/100 {
		t.Errorf("got %s, expected about 394.5ms", got)
	}
	if short := params.TimeOnAir(cfg, 10); short >= got {
		t.Errorf("10 byte packet %s not shorter than 240 byte packet %s", short, got)
	}
	if zero := params.TimeOnAir(params.LoRa{}, 10); zero != 0 {
		t.Errorf("zero bandwidth: got %s", zero)
	}
}
