package darkmagic

func init() {
	RegisterFormat("jpeg", "\xff\xd8", decodejpeg)
	RegisterFormat("png", pngHeader, decodepng)
	RegisterFormat("webp", "RIFF????WEBP", decodewebp)
	RegisterFormat("tiff", leHeader, decodetiff)
	RegisterFormat("tiff", beHeader, decodetiff)
}
