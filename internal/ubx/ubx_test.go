package ubx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func tail(frame []byte) [2]byte {
	return [2]byte{frame[len(frame)-2], frame[len(frame)-1]}
}

// Vectors captured from a working NEO-6M configuration burst.
func TestEncode_KnownChecksums(t *testing.T) {
	assert.Equal(t, [2]byte{0xE4, 0x62}, tail(CfgPM2()))
	assert.Equal(t, [2]byte{0x7F, 0xAA}, tail(CfgGNSS()))
	assert.Equal(t, [2]byte{0x22, 0x92}, tail(CfgRXMPowerSave()))
	assert.Equal(t, [2]byte{0x4D, 0x3B}, tail(RxmPMREQ(0)))
}

func TestEncode_Header(t *testing.T) {
	f := CfgPM2()
	require.Len(t, f, 6+44+2)
	assert.Equal(t, []byte{0xB5, 0x62, 0x06, 0x3B, 0x2C, 0x00}, f[:6])

	g := CfgGNSS()
	assert.Equal(t, []byte{0xB5, 0x62, 0x06, 0x3E, 0x24, 0x00}, g[:6])
}

func TestRxmPMREQ_Duration(t *testing.T) {
	fr, n, err := Decode(RxmPMREQ(1500 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, byte(ClassRXM), fr.Class)
	assert.Equal(t, byte(IDRxmPMREQ), fr.ID)
	assert.Equal(t, []byte{0xDC, 0x05, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00}, fr.Payload)
}

func TestDecode_Errors(t *testing.T) {
	_, _, err := Decode([]byte{0xB5, 0x62})
	assert.Error(t, err)

	bad := CfgRXMPowerSave()
	bad[len(bad)-1] ^= 0xFF
	_, _, err = Decode(bad)
	assert.Error(t, err)

	wrongSync := CfgRXMPowerSave()
	wrongSync[0] = 0x24
	_, _, err = Decode(wrongSync)
	assert.Error(t, err)

	trunc := CfgPM2()
	_, _, err = Decode(trunc[:20])
	assert.Error(t, err)
}

func TestEncodeDecode_AnyPayload(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		class := rapid.Byte().Draw(t, "class")
		id := rapid.Byte().Draw(t, "id")
		payload := rapid.SliceOfN(rapid.Byte(), 0, 300).Draw(t, "payload")

		fr, n, err := Decode(Encode(class, id, payload))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if n != 8+len(payload) || fr.Class != class || fr.ID != id || len(fr.Payload) != len(payload) {
			t.Fatalf("mismatch: n=%d frame=%+v", n, fr)
		}
	})
}

func TestWakeSequence(t *testing.T) {
	w := WakeSequence()
	require.Len(t, w, 10)
	for _, b := range w {
		assert.Equal(t, byte(0xFF), b)
	}
}

func TestPUBXRate_Checksums(t *testing.T) {
	assert.Equal(t, "$PUBX,40,GLL,0,0,0,0,0,0*5C\r\n", PUBXRate("GLL", false))
	assert.Equal(t, "$PUBX,40,GSA,0,0,0,0,0,0*4E\r\n", PUBXRate("gsa", false))
	assert.Equal(t, "$PUBX,40,ZDA,0,1,0,0,0,0*45\r\n", PUBXRate("ZDA", true))
}

func TestSelectOutput(t *testing.T) {
	cmds := SelectOutput("ZDA")
	require.Len(t, cmds, 7)
	assert.Equal(t, "$PUBX,40,GGA,0,0,0,0,0,0*5A\r\n", cmds[2])
	assert.Equal(t, "$PUBX,40,RMC,0,0,0,0,0,0*47\r\n", cmds[3])
	assert.Equal(t, "$PUBX,40,GSV,0,0,0,0,0,0*59\r\n", cmds[4])
	assert.Equal(t, "$PUBX,40,VTG,0,0,0,0,0,0*5E\r\n", cmds[5])
	assert.Equal(t, "$PUBX,40,ZDA,0,1,0,0,0,0*45\r\n", cmds[6])
}
