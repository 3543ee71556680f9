package services

import (
	"encoding/base64"
	"fmt"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"
)

const defaultQRSize = 256

type QROptions struct {
	Content string
	Size    int
	FgColor string // Hex code e.g. "#000000"
	BgColor string // Hex code e.g. "#FFFFFF"
}

type QRService struct{}

func NewQRService() *QRService {
	return &QRService{}
}

// GenerateDataURL renders content as a PNG QR code wrapped in a data URL,
// ready to be used as an <img> src.
func (s *QRService) GenerateDataURL(opts QROptions) (string, error) {
	pngBytes, err := s.GeneratePNG(opts)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes), nil
}

func (s *QRService) GeneratePNG(opts QROptions) ([]byte, error) {
	qr, err := qrcode.New(opts.Content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}

	qr.ForegroundColor = s.parseHexColor(opts.FgColor, color.Black)
	qr.BackgroundColor = s.parseHexColor(opts.BgColor, color.White)

	size := opts.Size
	if size <= 0 {
		size = defaultQRSize
	}
	return qr.PNG(size)
}

func (s *QRService) parseHexColor(hex string, defaultColor color.Color) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return defaultColor
	}

	hexToByte := func(c byte) byte {
		if c >= '0' && c <= '9' {
			return c - '0'
		}
		if c >= 'a' && c <= 'f' {
			return c - 'a' + 10
		}
		if c >= 'A' && c <= 'F' {
			return c - 'A' + 10
		}
		return 0
	}

	r := (hexToByte(hex[0]) << 4) + hexToByte(hex[1])
	g := (hexToByte(hex[2]) << 4) + hexToByte(hex[3])
	b := (hexToByte(hex[4]) << 4) + hexToByte(hex[5])

	return color.RGBA{R: r, G: g, B: b, A: 255}
}
