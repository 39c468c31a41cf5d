// Package raster draws card images into sheet cells.
//
// # Overview
//
// [DrawCell] composites one decoded card image into one [grid.Cell] of a
// page. Cards are portrait while cells are landscape, so every card is
// rotated by 90° about the cell center; backs get a further 180° so that
// they read the right way up after the sheet is flipped.
//
// With a border the card face is filled black, the image is stretched into
// the face inset by [Style.BorderSize] on every side, and the four face
// corners outside a quarter disc of radius [Style.CornerRadius] are painted
// white. Corner paths extend [Style.Overdraw] pixels past the cell edge to
// avoid anti-aliased seams; drawing happens on a cell-sized canvas, so that
// overdraw never touches neighbouring cells.
//
// Without a border the image is stretched over the whole face.
//
// Images are stretched, never letterboxed. [AspectMismatch] reports images
// whose proportions differ noticeably from the face so callers can warn.
//
// # Decoding
//
// [Decode] accepts PNG, JPEG, GIF, BMP, TIFF and WebP and applies EXIF
// orientation. [DefaultBack] returns the built-in card back.
package raster
