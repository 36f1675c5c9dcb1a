package qr

import (
	"github.com/skip2/go-qrcode"
)

// Generator renders ticket codes as QR PNGs. The code itself is the sole
// credential, so the symbol carries nothing but the bare code text.
type Generator struct {
	size int
}

func NewGenerator() *Generator {
	return &Generator{size: 256}
}

func (g *Generator) Encode(code string) ([]byte, error) {
	return qrcode.Encode(code, qrcode.Medium, g.size)
}
