package cvanalysis

import "errors"

var (
	ErrNotTrained        = errors.New("cv analyzer is not trained")
	ErrEmptyDataset      = errors.New("no CV could be read from the dataset")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoText            = errors.New("no text could be extracted")
	ErrInvalidModel      = errors.New("invalid model artifact")
)
