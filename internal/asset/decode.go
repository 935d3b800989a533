package asset

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// imageConfig reads only the header of the image at p. BMP and TIFF decoders
// are registered through the imaging import.
func imageConfig(p string) (image.Config, string, error) {
	f, err := os.Open(p)
	if err != nil {
		return image.Config{}, "", err
	}
	defer f.Close()
	return image.DecodeConfig(f)
}
