package filekit

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
)

// reportFunc receives page-level progress from an adapter.
type reportFunc func(done, total int)

// dispatcher runs transformations against a loaded file. Every failure
// leaves it as an *Error.
type dispatcher struct {
	cfg config
	log *zap.Logger
}

func newDispatcher(cfg config) *dispatcher {
	if cfg.rasterizer == nil {
		cfg.rasterizer = MuPDF{}
	}
	return &dispatcher{cfg: cfg, log: cfg.log.Named("dispatch")}
}

// input is one loaded file.
type input struct {
	file FileCandidate
	data []byte
}

func (d *dispatcher) dispatch(ctx context.Context, t Transformation, file FileCandidate, data []byte, report reportFunc) (*Artifact, error) {
	return d.dispatchAll(ctx, t, []input{{file: file, data: data}}, report)
}

// dispatchAll runs t over in. Single-file transformations only see in[0].
func (d *dispatcher) dispatchAll(ctx context.Context, t Transformation, in []input, report reportFunc) (art *Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("transformation panicked",
				zap.String("tool", t.Tool()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			art, err = nil, unknownError(fmt.Sprintf("%s failed unexpectedly: %v", t.Tool(), r), nil)
		}
	}()
	if report == nil {
		report = func(int, int) {}
	}

	if u, ok := t.(Unsupported); ok {
		return nil, notImplementedError(u.Name)
	}
	if len(in) == 0 {
		return nil, validationError("no file to process", nil)
	}
	if !TakesAllFiles(t) {
		in = in[:1]
	}
	if err := d.checkCapacity(t, in); err != nil {
		return nil, err
	}

	file, data := in[0].file, in[0].data
	switch t := t.(type) {
	case PDFToDocument:
		art, err = d.pdfToDocument(ctx, file, data, report)
	case PDFToImages:
		art, err = d.pdfToImages(ctx, t, file, data, report)
	case HTMLToPDF:
		art, err = d.htmlToPDF(ctx, file, data)
	case MergePDF:
		art, err = d.mergePDF(ctx, in, report)
	case ImageConvert:
		art, err = d.imageConvert(t, file, data)
	case ImageResize:
		art, err = d.imageResize(t, file, data)
	case ImageCompress:
		art, err = d.imageCompress(t, file, data)
	case TextCase:
		art, err = d.textCase(t, file, data)
	case TextStats:
		art, err = d.textStats(file, data)
	default:
		return nil, unknownError(fmt.Sprintf("no handler for %T", t), nil)
	}
	if err != nil {
		return nil, classify(err)
	}
	art.Source = sourceNames(in)
	return art, nil
}

func sourceNames(in []input) string {
	names := make([]string, len(in))
	for i, f := range in {
		names[i] = f.file.Name
	}
	return strings.Join(names, ", ")
}

// checkCapacity rejects inputs whose projected decode cost exceeds the
// configured capacity. Multi-file inputs are costed on their total size.
func (d *dispatcher) checkCapacity(t Transformation, in []input) error {
	lim := d.cfg.limits
	var size int64
	for _, f := range in {
		size += int64(len(f.data))
	}
	cost, ok := lim.projectedCost(t.Tool(), size)
	if !ok || cost <= lim.Capacity {
		return nil
	}
	subject := in[0].file.Name + " is"
	if len(in) > 1 {
		subject = fmt.Sprintf("%d files together are", len(in))
	}
	d.log.Info("capacity exceeded",
		zap.String("tool", t.Tool()),
		zap.String("file", in[0].file.Name),
		zap.Int("files", len(in)),
		zap.Int64("projected", cost),
		zap.Int64("capacity", lim.Capacity),
	)
	return capacityError(fmt.Sprintf("%s too large to process safely (needs about %s, limit %s)",
		subject, formatSize(cost), formatSize(lim.Capacity)), nil)
}

func classify(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return unknownError("processing was cancelled", err)
	}
	return transformationError("transformation failed", err)
}
