package gridprop

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/strata-data/gridprop/errors"
	"github.com/strata-data/gridprop/internal/eclbin"
	"github.com/strata-data/gridprop/internal/monitoring"
	"github.com/strata-data/gridprop/internal/roff"
)

// Format selects an import/export codec.
type Format string

const (
	// FormatGuess derives the format from the file extension on import and
	// resolves to binary roff on export.
	FormatGuess     Format = "guess"
	FormatRoff      Format = "roff"
	FormatRoffASCII Format = "roffasc"
	FormatInit      Format = "init"
	FormatUnrst     Format = "unrst"
)

// ValidImportFormats are the formats FromFile accepts.
var ValidImportFormats = []Format{FormatGuess, FormatRoff, FormatRoffASCII, FormatInit, FormatUnrst}

// ValidExportFormats are the formats ToFile accepts.
var ValidExportFormats = []Format{FormatGuess, FormatRoff, FormatRoffASCII}

func guessFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".roff":
		return FormatRoff, nil
	case ".roffasc":
		return FormatRoffASCII, nil
	case ".init":
		return FormatInit, nil
	case ".unrst":
		return FormatUnrst, nil
	default:
		return "", errors.NewFormatError("cannot guess format of %q, valid extensions are: .roff, .roffasc, .init, .unrst", path)
	}
}

// ImportOptions controls FromFile.
type ImportOptions struct {
	// Format selects the codec; empty or FormatGuess derives it from the
	// file extension.
	Format Format
	// Name is the parameter or keyword to read. Required for init/unrst;
	// empty selects the first parameter for roff.
	Name string
	// Geometry supplies grid dimensions for init/unrst (required) and is
	// linked and registered with the imported property for any format.
	Geometry Geometry
	// Date selects the restart report step for unrst: a literal YYYYMMDD,
	// or "first"/"last" resolved against the file. Required for unrst.
	Date string
}

// ExportOptions controls ToFile.
type ExportOptions struct {
	// Format selects the codec; empty or FormatGuess resolves to binary
	// roff. Only roff formats are exportable.
	Format Format
	// Name overrides the parameter name written to the file.
	Name string
}

// FromFile imports a property from a file. The codec, selected by format or
// guessed from the extension, owns the raw status codes; they are
// translated here into the typed error taxonomy. On success the source path
// lands in FileSrc and, when a geometry is supplied, the property is linked
// to it and registered with it.
func FromFile(path string, opts ImportOptions) (*GridProperty, error) {
	format := opts.Format
	if format == "" || format == FormatGuess {
		var err error
		format, err = guessFormat(path)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var p *GridProperty
	switch format {
	case FormatRoff, FormatRoffASCII:
		p, err = importRoff(f, path, opts)
	case FormatInit:
		p, err = importInit(f, path, opts)
	case FormatUnrst:
		p, err = importUnrst(f, path, opts)
	default:
		return nil, errors.NewFormatError("unknown import format %q, valid entries are: %s", string(format), formatsString(ValidImportFormats))
	}
	if err != nil {
		return nil, err
	}

	p.filesrc = path
	if opts.Geometry != nil {
		if err := p.SetGeometry(opts.Geometry); err != nil {
			return nil, err
		}
		opts.Geometry.RegisterProperty(p)
	}
	return p, nil
}

func importRoff(r io.Reader, path string, opts ImportOptions) (*GridProperty, error) {
	param, status, err := roff.Read(r, opts.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", path)
	}
	if status != roff.StatusOK {
		return nil, translateStatus(status, opts.Name, opts.Date, path)
	}

	discrete := param.Kind == roff.KindInt
	p, err := New(param.NCol, param.NRow, param.NLay, Params{Name: param.Name, Discrete: discrete})
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", path)
	}
	if discrete {
		if err := p.SetInt32s(param.IVals); err != nil {
			return nil, errors.Wrapf(err, "import %s", path)
		}
		if param.Codes != nil {
			if err := p.SetCodes(CodeTable(param.Codes)); err != nil {
				return nil, errors.Wrapf(err, "import %s", path)
			}
		}
	} else {
		if err := p.SetFloat64s(param.FVals); err != nil {
			return nil, errors.Wrapf(err, "import %s", path)
		}
	}
	if d := dtypeFromWire(param.Kind, param.Width); d != p.DType() {
		if err := p.SetDType(d); err != nil {
			return nil, errors.Wrapf(err, "import %s: restore dtype tag", path)
		}
	}
	return p, nil
}

func importInit(r io.Reader, path string, opts ImportOptions) (*GridProperty, error) {
	if opts.Geometry == nil {
		return nil, errors.NewPreconditionError("init import of %s needs a geometry for the grid dimensions", path)
	}
	if opts.Name == "" {
		return nil, errors.NewPreconditionError("init import of %s needs a keyword name", path)
	}
	ncol, nrow, nlay := opts.Geometry.Dimensions()
	arr, status, err := eclbin.ReadInit(r, opts.Name, ncol, nrow, nlay)
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", path)
	}
	if status != eclbin.StatusOK {
		return nil, translateStatus(status, opts.Name, opts.Date, path)
	}
	return propertyFromEclArray(arr, ncol, nrow, nlay, path)
}

func importUnrst(r io.Reader, path string, opts ImportOptions) (*GridProperty, error) {
	if opts.Geometry == nil {
		return nil, errors.NewPreconditionError("restart import of %s needs a geometry for the grid dimensions", path)
	}
	if opts.Name == "" {
		return nil, errors.NewPreconditionError("restart import of %s needs a keyword name", path)
	}
	if opts.Date == "" {
		return nil, errors.NewPreconditionError("restart import of %s needs a date (YYYYMMDD, \"first\" or \"last\")", path)
	}
	ncol, nrow, nlay := opts.Geometry.Dimensions()
	arr, resolved, status, err := eclbin.ReadRestart(r, opts.Name, opts.Date, ncol, nrow, nlay)
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", path)
	}
	if status != eclbin.StatusOK {
		return nil, translateStatus(status, opts.Name, opts.Date, path)
	}
	p, err := propertyFromEclArray(arr, ncol, nrow, nlay, path)
	if err != nil {
		return nil, err
	}
	p.SetDate(resolved)
	return p, nil
}

func propertyFromEclArray(arr *eclbin.Array, ncol, nrow, nlay int, path string) (*GridProperty, error) {
	discrete := arr.Type == eclbin.TypeInte
	p, err := New(ncol, nrow, nlay, Params{Name: arr.Name, Discrete: discrete})
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", path)
	}
	if discrete {
		if err := p.SetInt32s(arr.IVals); err != nil {
			return nil, errors.Wrapf(err, "import %s", path)
		}
		p.codes = identityCodes(p.ivals, p.mask)
	} else {
		if err := p.SetFloat64s(arr.FVals); err != nil {
			return nil, errors.Wrapf(err, "import %s", path)
		}
	}
	return p, nil
}

// translateStatus maps raw codec status codes into the typed taxonomy.
// This is the only place raw codes are interpreted.
func translateStatus(status int, name, date, path string) error {
	switch status {
	case 22:
		return errors.NewDateNotFoundError("date %s not found in %s", date, path)
	case 23:
		return errors.NewKeywordNotFoundError("keyword %q not found for any date in %s", name, path)
	case 24:
		return errors.NewKeywordFoundNoDateError("keyword %q exists in %s but not at date %s", name, path, date)
	case 25:
		return errors.NewKeywordNotFoundError("keyword %q not found in %s", name, path)
	default:
		return errors.NewImportFailedError(status, "import keyword %q from %s", name, path)
	}
}

// ToFile exports the property. Only the roff encodings are writable;
// anything else fails loudly rather than silently skipping the write.
func (p *GridProperty) ToFile(path string, opts ExportOptions) error {
	format := opts.Format
	if format == "" || format == FormatGuess {
		format = FormatRoff
	}
	switch format {
	case FormatRoff, FormatRoffASCII:
	default:
		return errors.NewFormatError("format %q unsupported for export, valid entries are: %s", string(format), formatsString(ValidExportFormats))
	}

	name := opts.Name
	if name == "" {
		name = p.name
	}
	param := &roff.Parameter{
		Name:  name,
		NCol:  p.ncol,
		NRow:  p.nrow,
		NLay:  p.nlay,
		Kind:  roff.KindFloat,
		Width: wireWidth(p.dtype),
	}
	if p.discrete {
		param.Kind = roff.KindInt
		param.IVals, _ = p.DenseInt32s()
		param.Codes = map[int32]string(p.codes.Clone())
	} else {
		param.FVals, _ = p.DenseFloat64s()
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	n, err := roff.Write(f, param, format == FormatRoffASCII)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "export %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	monitoring.Logf("gridprop: exported property %q to %s (%d values)", name, path, n)
	return nil
}

func formatsString(formats []Format) string {
	strs := make([]string, len(formats))
	for i, f := range formats {
		strs[i] = string(f)
	}
	return strings.Join(strs, ", ")
}

// wireWidth maps a DType tag to its declared element width in bytes.
func wireWidth(d DType) int {
	switch d {
	case Float64:
		return 8
	case Float32, Int32:
		return 4
	case UInt16:
		return 2
	case UInt8:
		return 1
	default:
		return 8
	}
}

// dtypeFromWire restores a DType tag from the codec kind and declared
// width, falling back to the kind's canonical width.
func dtypeFromWire(kind roff.Kind, width int) DType {
	if kind == roff.KindInt {
		switch width {
		case 2:
			return UInt16
		case 1:
			return UInt8
		default:
			return Int32
		}
	}
	if width == 4 {
		return Float32
	}
	return Float64
}
