// Package filekit runs single-file conversion tools (PDF, image and text
// utilities) through a small, observable processing pipeline.
//
// # Catalog
//
// Every tool is described by a [ToolDescriptor] in a [Catalog]. A tool's
// category selects its accept pattern and size ceiling:
//
//	kit := filekit.New()
//	defer kit.Close()
//
//	for _, t := range kit.Catalog().Tools() {
//	    fmt.Println(t.Slug(), t.Category, filekit.Implemented(t))
//	}
//
// # Sessions
//
// A [Session] owns the processing state of one tool. Files are offered,
// validated, and then run through a [Transformation]:
//
//	sess, err := kit.NewSession("pdf-to-word")
//	f, err := filekit.IntakePath("report.pdf")
//	part, err := sess.Offer([]filekit.FileCandidate{f})
//	// part.Rejected holds one message per refused file.
//
//	t, err := kit.Resolve("pdf-to-word", filekit.Params{})
//	out, err := sess.Run(ctx, t)
//
// Only the first accepted file is processed and out.Notice reports the
// rest, except for tools such as merge-pdf that consume every file in
// selection order.
// Observers follow progress with [Session.Subscribe]. Progress rises on a
// timer up to a ceiling below 100 and reaches 100 only on success.
//
// Calling [Session.Reset] while a run is in flight discards its result:
// Run returns [ErrStale] and the session stays idle.
//
// # Artifacts
//
// A successful run registers its [Artifact] and returns a [Handle]. Only
// one artifact is live per session; registering a new one or resetting
// releases the previous one and its spooled files.
//
//	saver := &filekit.DirSaver{Dir: "out"}
//	err = out.Artifact.Download(saver)
//	link, err := out.Artifact.Link()   // file:// URL
//	uri, err := out.Artifact.DataURI() // data: URL
//
// # Errors
//
// Pipeline failures are [*Error] values classified by [Kind]. Use
// [KindOf] to branch on validation, capacity, transformation,
// not-implemented and unknown failures.
package filekit
