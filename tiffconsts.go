// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package darkmagic

// A TIFF file, and every EXIF payload, starts with an 8-byte header: the
// byte order, the magic number 42 and the offset of the first image file
// directory. Raw formats such as Canon CR2 are TIFF files, so their whole
// content is the EXIF payload.

const (
	leHeader = "II\x2A\x00" // Header for little-endian files.
	beHeader = "MM\x00\x2A" // Header for big-endian files.

	tiffHeaderLen = 8
)

// Tags (see p. 28-41 of TIFF 6.0).
const (
	tImageWidth  = 256
	tImageLength = 257
)
