package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmbsims/scanpar/pkg/params"
)

// StartDateLayout is the reference layout of the start_date parameter.
// Single-digit months and days are written without padding.
const StartDateLayout = "2006/1/2 15:04:05"

// Parameters holds the complete typed configuration of a scan
// simulation run, grouped the way the engine consumes it.
type Parameters struct {
	// Input sky settings
	Sky SkyParameters

	// Instrument settings
	Instrument InstrumentParameters

	// Scanning strategy settings
	Scan ScanParameters

	// Output map settings
	Output OutputParameters
}

// SkyParameters describes the input sky maps
type SkyParameters struct {
	// InputFilename points to a CAMB lensed Cls file or a healpix map
	InputFilename string

	// FwhmIn is the beam FWHM already applied to the input map, in arcmin
	FwhmIn float64

	// NsideIn is the healpix resolution of the input map
	NsideIn int

	// MapSeed seeds map generation from Cls
	MapSeed int

	// DoPol enables polarisation (Q/U) in addition to intensity
	DoPol bool

	// NoIleak zeroes the intensity map to isolate leakage effects
	NoIleak bool

	// NoQuleak zeroes the polarisation maps to isolate leakage effects
	NoQuleak bool
}

// InstrumentParameters describes the focal plane and readout chain
type InstrumentParameters struct {
	// Ncrate is the number of readout crates
	Ncrate int

	// NdfmuxPerCrate is the number of DfMux boards per crate
	NdfmuxPerCrate int

	// NsquidPerMux is the number of SQUIDs per DfMux board
	NsquidPerMux int

	// NpairPerSquid is the number of detector pairs per SQUID
	NpairPerSquid int

	// FpSize is the physical focal plane size, in cm
	FpSize float64

	// Fwhm is the beam FWHM of the detectors, in arcmin
	Fwhm float64

	// BeamSeed seeds beam imperfection generation
	BeamSeed int

	// ProjectedFpSize is the focal plane size projected on the sky, in degrees
	ProjectedFpSize float64

	// PmName selects the pointing model
	PmName string

	// TypeHwp selects the half-wave plate operation mode
	TypeHwp string

	// FreqHwp is the half-wave plate rotation frequency, in Hz
	FreqHwp float64

	// AngleHwp is the starting angle of the half-wave plate, in degrees
	AngleHwp float64

	// NameInstrument names the instrument in output files
	NameInstrument string
}

// ScanParameters describes the scanning strategy
type ScanParameters struct {
	// Nces is the number of constant elevation scans
	Nces int

	// StartDate is the first observation date (YYYY/M/D HH:MM:SS, UTC)
	StartDate string

	// TelescopeLongitude is sexagesimal, West negative (e.g. -67:46.816)
	TelescopeLongitude string

	// TelescopeLatitude is sexagesimal, South negative (e.g. -22:56.396)
	TelescopeLatitude string

	// TelescopeElevation is the site elevation above sea level, in m
	TelescopeElevation float64

	// NameStrategy selects a predefined scanning strategy
	NameStrategy string

	// SamplingFreq is the detector sampling frequency, in Hz
	SamplingFreq float64

	// SkySpeed is the azimuth scan speed projected on the sky, in deg/s
	SkySpeed float64

	// Ut1utcFn points to the UT1-UTC correction ephemerides
	Ut1utcFn string

	// Language selects the implementation computing the pointing
	Language string
}

// OutputParameters describes the output maps of a run
type OutputParameters struct {
	// Projection of the output maps (healpix or flat)
	Projection string

	// NsideOut is the healpix resolution of the output maps
	NsideOut int

	// PixelSize of flat output maps, in arcmin
	PixelSize float64

	// Width of flat output maps, in degrees
	Width float64

	// ArrayNoiseLevel is the white noise level of the array in
	// uK.sqrt(s). Nil disables noise injection.
	ArrayNoiseLevel *float64

	// ArrayNoiseSeed seeds the noise timestreams
	ArrayNoiseSeed int

	// FolderOut receives the output maps
	FolderOut string

	// SimNumber is the index within a Monte Carlo batch
	SimNumber int

	// Tag identifies the run in output file names
	Tag string

	// Verbose enables progress output during the run
	Verbose bool
}

// FromSet builds typed parameters from a loaded parameter set. Every
// missing or mistyped parameter is reported, not just the first one.
func FromSet(set *params.Set) (*Parameters, error) {
	r := &reader{set: set}

	p := &Parameters{
		Sky: SkyParameters{
			InputFilename: r.str("input_filename"),
			FwhmIn:        r.float("fwhm_in"),
			NsideIn:       r.integer("nside_in"),
			MapSeed:       r.integer("map_seed"),
			DoPol:         r.boolean("do_pol"),
			NoIleak:       r.boolean("no_ileak"),
			NoQuleak:      r.boolean("no_quleak"),
		},
		Instrument: InstrumentParameters{
			Ncrate:          r.integer("ncrate"),
			NdfmuxPerCrate:  r.integer("ndfmux_per_crate"),
			NsquidPerMux:    r.integer("nsquid_per_mux"),
			NpairPerSquid:   r.integer("npair_per_squid"),
			FpSize:          r.float("fp_size"),
			Fwhm:            r.float("fwhm"),
			BeamSeed:        r.integer("beam_seed"),
			ProjectedFpSize: r.float("projected_fp_size"),
			PmName:          r.str("pm_name"),
			TypeHwp:         r.str("type_hwp"),
			FreqHwp:         r.float("freq_hwp"),
			AngleHwp:        r.float("angle_hwp"),
			NameInstrument:  r.str("name_instrument"),
		},
		Scan: ScanParameters{
			Nces:               r.integer("nces"),
			StartDate:          r.str("start_date"),
			TelescopeLongitude: r.str("telescope_longitude"),
			TelescopeLatitude:  r.str("telescope_latitude"),
			TelescopeElevation: r.float("telescope_elevation"),
			NameStrategy:       r.str("name_strategy"),
			SamplingFreq:       r.float("sampling_freq"),
			SkySpeed:           r.float("sky_speed"),
			Ut1utcFn:           r.str("ut1utc_fn"),
			// Older files predate the language parameter. The engine
			// default applies.
			Language: r.strOr("language", "python"),
		},
		Output: OutputParameters{
			Projection:      r.str("projection"),
			NsideOut:        r.integer("nside_out"),
			PixelSize:       r.float("pixel_size"),
			Width:           r.float("width"),
			ArrayNoiseLevel: r.optFloat("array_noise_level"),
			ArrayNoiseSeed:  r.integer("array_noise_seed"),
			FolderOut:       r.str("folder_out"),
			SimNumber:       r.integer("sim_number"),
			Tag:             r.str("tag"),
			Verbose:         r.boolean("verbose"),
		},
	}

	if err := errors.Join(r.errs...); err != nil {
		return nil, fmt.Errorf("failed to build run parameters: %w", err)
	}

	return p, nil
}

// reader accumulates lookup errors so FromSet can report them all
type reader struct {
	set  *params.Set
	errs []error
}

func (r *reader) str(key string) string {
	v, err := r.set.String(key)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return v
}

func (r *reader) strOr(key, fallback string) string {
	if !r.set.Has(key) {
		return fallback
	}
	return r.str(key)
}

func (r *reader) float(key string) float64 {
	v, err := r.set.Float(key)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return v
}

func (r *reader) integer(key string) int {
	v, err := r.set.Int(key)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return v
}

func (r *reader) boolean(key string) bool {
	v, err := r.set.Bool(key)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return v
}

func (r *reader) optFloat(key string) *float64 {
	if !r.set.Has(key) || r.set.IsNone(key) {
		return nil
	}
	v, err := r.set.Float(key)
	if err != nil {
		r.errs = append(r.errs, err)
		return nil
	}
	return &v
}

// Validate checks the physical consistency of the parameters
func (p *Parameters) Validate() error {
	if p.Sky.InputFilename == "" {
		return fmt.Errorf("input filename is required")
	}

	if !isPowerOfTwo(p.Sky.NsideIn) {
		return fmt.Errorf("input nside must be a power of two, got %d", p.Sky.NsideIn)
	}

	if p.Sky.FwhmIn < 0 {
		return fmt.Errorf("input beam FWHM must not be negative")
	}

	if p.Instrument.Ncrate <= 0 || p.Instrument.NdfmuxPerCrate <= 0 ||
		p.Instrument.NsquidPerMux <= 0 || p.Instrument.NpairPerSquid <= 0 {
		return fmt.Errorf("readout chain counts must be positive")
	}

	if p.Instrument.FpSize <= 0 {
		return fmt.Errorf("focal plane size must be positive")
	}

	if p.Instrument.Fwhm < 0 {
		return fmt.Errorf("beam FWHM must not be negative")
	}

	if p.Instrument.ProjectedFpSize <= 0 {
		return fmt.Errorf("projected focal plane size must be positive")
	}

	if p.Instrument.PmName != "5params" {
		return fmt.Errorf("unknown pointing model %q", p.Instrument.PmName)
	}

	switch p.Instrument.TypeHwp {
	case "CRHWP", "stepped":
	default:
		return fmt.Errorf("unknown half-wave plate mode %q", p.Instrument.TypeHwp)
	}

	if p.Instrument.FreqHwp < 0 {
		return fmt.Errorf("half-wave plate frequency must not be negative")
	}

	if p.Instrument.NameInstrument == "" {
		return fmt.Errorf("instrument name is required")
	}

	if p.Scan.Nces <= 0 {
		return fmt.Errorf("number of scans must be positive")
	}

	if _, err := p.StartTime(); err != nil {
		return err
	}

	if err := validateSexagesimal("telescope longitude", p.Scan.TelescopeLongitude); err != nil {
		return err
	}
	if err := validateSexagesimal("telescope latitude", p.Scan.TelescopeLatitude); err != nil {
		return err
	}

	if p.Scan.TelescopeElevation < 0 {
		return fmt.Errorf("telescope elevation must not be negative")
	}

	if p.Scan.NameStrategy != "deep_patch" {
		return fmt.Errorf("unknown scanning strategy %q", p.Scan.NameStrategy)
	}

	if p.Scan.SamplingFreq <= 0 {
		return fmt.Errorf("sampling frequency must be positive")
	}

	if p.Scan.SkySpeed <= 0 {
		return fmt.Errorf("sky speed must be positive")
	}

	switch p.Scan.Language {
	case "python", "C", "fortran":
	default:
		return fmt.Errorf("unknown pointing implementation %q", p.Scan.Language)
	}

	switch p.Output.Projection {
	case "healpix":
		if !isPowerOfTwo(p.Output.NsideOut) {
			return fmt.Errorf("output nside must be a power of two, got %d", p.Output.NsideOut)
		}
	case "flat":
		if p.Output.PixelSize <= 0 {
			return fmt.Errorf("pixel size must be positive for flat projection")
		}
		if p.Output.Width <= 0 {
			return fmt.Errorf("map width must be positive for flat projection")
		}
	default:
		return fmt.Errorf("unknown projection %q", p.Output.Projection)
	}

	if p.Output.ArrayNoiseLevel != nil && *p.Output.ArrayNoiseLevel < 0 {
		return fmt.Errorf("array noise level must not be negative")
	}

	if p.Output.FolderOut == "" {
		return fmt.Errorf("output folder is required")
	}

	if p.Output.SimNumber < 0 {
		return fmt.Errorf("simulation number must not be negative")
	}

	if p.Output.Tag == "" {
		return fmt.Errorf("run tag is required")
	}

	return nil
}

// StartTime parses the start date of the observations
func (p *Parameters) StartTime() (time.Time, error) {
	t, err := time.Parse(StartDateLayout, p.Scan.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q (want YYYY/M/D HH:MM:SS)", p.Scan.StartDate)
	}
	return t, nil
}

// NumDetectors returns the total detector count of the focal plane.
// Each pair holds two detectors.
func (p *Parameters) NumDetectors() int {
	return p.Instrument.Ncrate *
		p.Instrument.NdfmuxPerCrate *
		p.Instrument.NsquidPerMux *
		p.Instrument.NpairPerSquid * 2
}

// OutputName returns the base name of the run outputs,
// tag_instrument_strategy.
func (p *Parameters) OutputName() string {
	return fmt.Sprintf("%s_%s_%s", p.Output.Tag, p.Instrument.NameInstrument, p.Scan.NameStrategy)
}

// validateSexagesimal checks a DD:MM.m coordinate string, optionally
// with a seconds component.
func validateSexagesimal(name, value string) error {
	s := strings.TrimPrefix(value, "-")
	s = strings.TrimPrefix(s, "+")
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("%s must be sexagesimal (DD:MM.m), got %q", name, value)
	}
	for _, part := range parts {
		if _, err := strconv.ParseFloat(part, 64); err != nil {
			return fmt.Errorf("%s must be sexagesimal (DD:MM.m), got %q", name, value)
		}
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
