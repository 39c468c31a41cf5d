// Package sheet composes card images into duplex-printable sheets.
//
// # Overview
//
// An export takes an ordered list of [Slot]s, one per physical card copy,
// and produces a front and a back JPEG for every page:
//
//  1. [Paginate] chunks the slots into [PageGroup]s of one page each.
//  2. [Builder.Build] decodes the images of one page side in parallel,
//     then draws them sequentially into a white page raster.
//  3. The page is re-encoded under a byte budget by the encode package.
//
// [Exporter.Export] drives these steps lazily and yields one [Output] per
// page side, front before back, page 1 before page 2:
//
//	exp, err := sheet.NewExporter(sheet.Options{UniversalBack: back})
//	for out, err := range exp.Export(ctx, slots) {
//	    if err != nil {
//	        // page failed; Options.OnPageError decides whether more follow
//	        continue
//	    }
//	    os.WriteFile(out.Name, out.Data, 0o644)
//	}
//
// # Fronts and Backs
//
// The front of slot i goes into cell i. Its back goes into the mirrored
// cell of the same row, rotated a further 180°, so that the two line up
// when the sheet is printed duplex and flipped on its long edge. Backs are
// chosen in this order: the slot's own back for double-faced cards, the
// run's universal back, the built-in default back. A universal back that
// does not decode leaves those cells white.
//
// # Diagnostics
//
// Per-card problems (undecodable images, missing faces, irregular aspect
// ratios, pages over budget) never abort an export. They are attached to
// the Output as [Diagnostic]s, logged, and reported through the
// observability export hooks.
package sheet
