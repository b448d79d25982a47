package motionhdr

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// Role is the semantic of a container segment. Roles are ordered: Primary first,
// then GainMap, then MotionPhoto.
type Role int

const (
	RolePrimary Role = iota
	RoleGainMap
	RoleMotionPhoto
)

var roleNames = [...]string{
	RolePrimary:     "Primary",
	RoleGainMap:     "GainMap",
	RoleMotionPhoto: "MotionPhoto",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole parses an Item:Semantic value.
func ParseRole(s string) (Role, error) {
	for i, name := range roleNames {
		if name == s {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown item semantic %q", s)
}

// Segment is a directory entry of the container.
type Segment struct {
	Role    Role   `json:"role"`
	Mime    string `json:"mime"`
	Length  int64  `json:"length"`
	Padding int64  `json:"padding"`
	// Path is the source of an appended segment, empty for Primary.
	Path string `json:"path,omitempty"`
}

// Variant selects which segments a container has.
type Variant int

const (
	VariantMotionPhoto Variant = iota + 1
	VariantUltraHDR
	VariantUltraHDRMotionPhoto
)

// layout describes the XMP document shape and the injector arguments of a variant.
type layout struct {
	name        string
	roles       []Role
	camera      bool
	timestamp   bool
	gainMap     bool
	offsets     bool
	capacityMin bool
	padding     bool
	mpfImages   int
	checkJPEG   bool
	defaults    resolvedParams
}

var layouts = map[Variant]layout{
	VariantMotionPhoto: {
		name:      "motion",
		roles:     []Role{RolePrimary, RoleMotionPhoto},
		camera:    true,
		timestamp: true,
		padding:   true,
	},
	VariantUltraHDR: {
		name:        "hdr",
		roles:       []Role{RolePrimary, RoleGainMap},
		gainMap:     true,
		offsets:     true,
		capacityMin: true,
		padding:     true,
		mpfImages:   2,
		checkJPEG:   true,
		defaults: resolvedParams{
			GainMapMin:     0.0,
			GainMapMax:     1.0,
			Gamma:          1.0,
			HDRCapacityMin: 0.0,
			HDRCapacityMax: 2.0,
		},
	},
	VariantUltraHDRMotionPhoto: {
		name:      "combined",
		roles:     []Role{RolePrimary, RoleGainMap, RoleMotionPhoto},
		camera:    true,
		gainMap:   true,
		mpfImages: 3,
		checkJPEG: true,
		defaults: resolvedParams{
			GainMapMin:     0.0,
			GainMapMax:     2.1,
			Gamma:          1.0,
			HDRCapacityMin: 0.0,
			HDRCapacityMax: 2.1,
		},
	},
}

func (v Variant) layout() (layout, error) {
	l, ok := layouts[v]
	if !ok {
		return layout{}, fmt.Errorf("unknown variant %d", int(v))
	}
	return l, nil
}

func (v Variant) String() string {
	if l, ok := layouts[v]; ok {
		return l.name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, it accepts the names used by the CLI.
func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVariant parses "motion", "hdr" or "combined".
func ParseVariant(s string) (Variant, error) {
	for v, l := range layouts {
		if strings.EqualFold(l.name, s) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown variant %q", s)
}

// Roles returns the segment roles of the variant in container order.
func (v Variant) Roles() []Role {
	l, err := v.layout()
	if err != nil {
		return nil
	}
	return append([]Role(nil), l.roles...)
}

// MPFImages is the number of images declared to the injector, 0 for plain motion photos.
func (v Variant) MPFImages() int {
	l, err := v.layout()
	if err != nil {
		return 0
	}
	return l.mpfImages
}

// GainMapParams are sparse overrides of the gain map tone mapping parameters.
// Nil fields fall back to the variant defaults.
type GainMapParams struct {
	GainMapMin     *float64 `yaml:"gain_map_min" json:"gainMapMin,omitempty"`
	GainMapMax     *float64 `yaml:"gain_map_max" json:"gainMapMax,omitempty"`
	Gamma          *float64 `yaml:"gamma" json:"gamma,omitempty"`
	HDRCapacityMin *float64 `yaml:"hdr_capacity_min" json:"hdrCapacityMin,omitempty"`
	HDRCapacityMax *float64 `yaml:"hdr_capacity_max" json:"hdrCapacityMax,omitempty"`
}

// Merge returns p with the fields set in o taking precedence.
func (p GainMapParams) Merge(o GainMapParams) GainMapParams {
	if o.GainMapMin != nil {
		p.GainMapMin = o.GainMapMin
	}
	if o.GainMapMax != nil {
		p.GainMapMax = o.GainMapMax
	}
	if o.Gamma != nil {
		p.Gamma = o.Gamma
	}
	if o.HDRCapacityMin != nil {
		p.HDRCapacityMin = o.HDRCapacityMin
	}
	if o.HDRCapacityMax != nil {
		p.HDRCapacityMax = o.HDRCapacityMax
	}
	return p
}

type resolvedParams struct {
	GainMapMin     float64
	GainMapMax     float64
	Gamma          float64
	HDRCapacityMin float64
	HDRCapacityMax float64
}

func (p GainMapParams) resolve(defaults resolvedParams) (resolvedParams, error) {
	r := defaults
	pick := func(dst *float64, src *float64, name string) error {
		if src == nil {
			return nil
		}
		if math.IsNaN(*src) || math.IsInf(*src, 0) {
			return fmt.Errorf("%s must be finite, got %v", name, *src)
		}
		*dst = *src
		return nil
	}
	if err := pick(&r.GainMapMin, p.GainMapMin, "gainMapMin"); err != nil {
		return r, err
	}
	if err := pick(&r.GainMapMax, p.GainMapMax, "gainMapMax"); err != nil {
		return r, err
	}
	if err := pick(&r.Gamma, p.Gamma, "gamma"); err != nil {
		return r, err
	}
	if err := pick(&r.HDRCapacityMin, p.HDRCapacityMin, "hdrCapacityMin"); err != nil {
		return r, err
	}
	if err := pick(&r.HDRCapacityMax, p.HDRCapacityMax, "hdrCapacityMax"); err != nil {
		return r, err
	}
	return r, nil
}

// Float returns a pointer to v, handy for filling GainMapParams.
func Float(v float64) *float64 {
	return &v
}

// Options controls container assembly.
type Options struct {
	// Injector writes the descriptor into the primary image, NativeInjector by default.
	Injector Injector
	// Logger receives progress, zap.NewNop by default.
	Logger *zap.Logger
	// MaxPasses bounds the fixed-point injection loop (default 4, at least 2).
	MaxPasses int
	// TempDir is the parent of the per-run scratch directory, os.TempDir if empty.
	TempDir string
	// Params overrides the variant gain map defaults.
	Params GainMapParams
	// VideoMime is declared for the MotionPhoto segment (default video/mp4).
	VideoMime string
	// GainMapMime is declared for the GainMap segment (default image/jpeg).
	GainMapMime string
	// PresentationTimestampUs is the motion photo key frame timestamp.
	PresentationTimestampUs int64
	// OnResult is called with the result of a successful assembly.
	OnResult func(res *Result)
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithInjector sets the descriptor injector.
func WithInjector(inj Injector) func(o *Options) {
	return func(o *Options) {
		o.Injector = inj
	}
}

// WithParams merges gain map parameter overrides.
func WithParams(p GainMapParams) func(o *Options) {
	return func(o *Options) {
		o.Params = o.Params.Merge(p)
	}
}

// WithPresentationTimestamp sets GCamera:MotionPhotoPresentationTimestampUs.
func WithPresentationTimestamp(us int64) func(o *Options) {
	return func(o *Options) {
		o.PresentationTimestampUs = us
	}
}

func newOptions(opts []func(o *Options)) Options {
	o := Options{
		MaxPasses:   defaultMaxPasses,
		VideoMime:   MimeMP4,
		GainMapMime: MimeJPEG,
	}
	for _, apply := range opts {
		apply(&o)
	}
	if o.Injector == nil {
		o.Injector = NativeInjector{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MaxPasses < minPasses {
		o.MaxPasses = minPasses
	}
	if o.VideoMime == "" {
		o.VideoMime = MimeMP4
	}
	if o.GainMapMime == "" {
		o.GainMapMime = MimeJPEG
	}
	return o
}

// Job names the inputs and output of one container.
type Job struct {
	Variant Variant       `yaml:"variant" json:"variant"`
	Primary string        `yaml:"primary" json:"primary"`
	GainMap string        `yaml:"gainmap,omitempty" json:"gainmap,omitempty"`
	Video   string        `yaml:"video,omitempty" json:"video,omitempty"`
	Output  string        `yaml:"output" json:"output"`
	Params  GainMapParams `yaml:"params,omitempty" json:"params,omitempty"`
}

// Result describes an assembled container.
type Result struct {
	RunID         string    `json:"runId"`
	Variant       Variant   `json:"variant"`
	Output        string    `json:"output"`
	PrimaryLength int64     `json:"primaryLength"`
	Segments      []Segment `json:"segments"`
	Appended      int64     `json:"appended"`
	Size          int64     `json:"size"`
	Passes        int       `json:"passes"`
}
