package scanning

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// documentParsePrompt is the shared prompt used by all LLM providers for travel documents
const documentParsePrompt = `You are an expert at reading travel documents. Analyze the given text or image and extract flight tickets, accommodation bookings, ferry tickets or tour vouchers.
Understand the whole document (airline, flight number, hotel name, address, dates) and do not drop any data.

Return ONLY valid JSON in this exact structure:
{
  "type": "flight" | "accommodation" | "ship" | "tour" | "unknown",
  "summary": "one or two sentences summarizing everything extracted",
  "title": "short title of the document",
  "startDate": "YYYY-MM-DD",
  "endDate": "YYYY-MM-DD",
  "departure": "origin",
  "arrival": "destination",
  "flight": {
    "airline": "airline name",
    "flightNumber": "flight number",
    "departureAirport": "departure airport (IATA code if printed)",
    "arrivalAirport": "arrival airport (IATA code if printed)",
    "departureDate": "YYYY-MM-DD",
    "arrivalDate": "YYYY-MM-DD",
    "departureTime": "HH:mm",
    "arrivalTime": "HH:mm",
    "departureCoordinates": { "lat": number, "lng": number },
    "arrivalCoordinates": { "lat": number, "lng": number }
  },
  "ship": {
    "shipName": "vessel name",
    "departurePort": "departure port",
    "arrivalPort": "arrival port",
    "departureDate": "YYYY-MM-DD",
    "arrivalDate": "YYYY-MM-DD",
    "departureTime": "HH:mm",
    "arrivalTime": "HH:mm"
  },
  "accommodation": {
    "hotelName": "property name",
    "address": "full address",
    "checkInDate": "YYYY-MM-DD",
    "checkOutDate": "YYYY-MM-DD",
    "checkInTime": "HH:mm",
    "coordinates": { "lat": number, "lng": number }
  },
  "tour": {
    "tourName": "tour name",
    "location": "meeting point",
    "date": "YYYY-MM-DD",
    "startTime": "HH:mm"
  }
}

Rules:
- Dates must be YYYY-MM-DD. If the document has no year, use the current year.
- Omit any field you cannot find. Do not invent flight numbers.
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// maxPromptText caps how many characters of extracted text are sent to a model
const maxPromptText = 15000

// textPrompt appends the document content to the shared prompt
func textPrompt(text string) string {
	text = truncateRunes(text, maxPromptText)
	return documentParsePrompt + "\n\n[DOCUMENT CONTENT]\n" + text
}

// IsMultimodal reports whether a content type is sent to the parser as file bytes
// rather than extracted text. An empty content type is treated as an image.
func IsMultimodal(contentType string) bool {
	mimeType := normalizeMIMEType(contentType)
	return strings.HasPrefix(mimeType, "image/") || mimeType == "application/pdf"
}

// Encode prepares a multimodal file for upload to a parser
func Encode(data []byte, contentType string) (Document, error) {
	if !IsMultimodal(contentType) {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedContent, contentType)
	}
	if len(data) == 0 {
		return Document{}, fmt.Errorf("encoding document: empty file")
	}
	return Document{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MIMEType: normalizeMIMEType(contentType),
	}, nil
}

// decode returns the raw bytes of a multimodal document
func decode(doc Document) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(doc.Base64)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 payload: %w", err)
	}
	return data, nil
}

func normalizeMIMEType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

// pdfToImage renders the first page of a PDF as PNG
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Tickets and vouchers carry the itinerary on the first page
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// imageToPNG converts any supported image format to PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// Phone screenshots of boarding passes are often HEIC, which the standard library cannot decode
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("%w: supported formats are JPEG, PNG, GIF, HEIC, HEIF, PDF: %v", ErrUnsupportedContent, err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// prepareImageData converts a PDF or non-PNG image to PNG.
// Returns the PNG data and whether a conversion occurred.
func prepareImageData(data []byte, contentType string) ([]byte, bool, error) {
	mimeType := normalizeMIMEType(contentType)
	switch {
	case mimeType == "application/pdf":
		pngData, err := pdfToImage(data)
		if err != nil {
			return nil, false, fmt.Errorf("converting PDF to image: %w", err)
		}
		return pngData, true, nil
	case mimeType != "image/png" || isHEICFormat(data):
		pngData, err := imageToPNG(data, mimeType)
		if err != nil {
			return nil, false, fmt.Errorf("converting image to PNG: %w", err)
		}
		return pngData, true, nil
	}
	return data, false, nil
}
