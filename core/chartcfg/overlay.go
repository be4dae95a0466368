package chartcfg

import "maps"

// Overlay is a partial RendererConfig. A nil field means "not set".
//
// Merge policy, applied by ApplyTo:
//   - scalars overwrite when set
//   - maps merge key-wise, overlay wins
//   - slices replace wholesale when set
//   - nested structs recurse
type Overlay struct {
	BindTo     *string            `mapstructure:"bindto" json:"bindto,omitempty"`
	Data       *DataOverlay       `mapstructure:"data" json:"data,omitempty"`
	Axis       *AxisOverlay       `mapstructure:"axis" json:"axis,omitempty"`
	Bar        *BarOverlay        `mapstructure:"bar" json:"bar,omitempty"`
	Tooltip    *TooltipOverlay    `mapstructure:"tooltip" json:"tooltip,omitempty"`
	Size       *SizeOverlay       `mapstructure:"size" json:"size,omitempty"`
	Padding    *PaddingOverlay    `mapstructure:"padding" json:"padding,omitempty"`
	Transition *TransitionOverlay `mapstructure:"transition" json:"transition,omitempty"`
}

// DataOverlay is a partial DataConfig. The dataset itself is never overlaid.
type DataOverlay struct {
	Order  *string           `mapstructure:"order" json:"order,omitempty"`
	Type   *string           `mapstructure:"type" json:"type,omitempty"`
	Keys   *KeysOverlay      `mapstructure:"keys" json:"keys,omitempty"`
	Groups [][]string        `mapstructure:"groups" json:"groups,omitempty"`
	Names  map[string]string `mapstructure:"names" json:"names,omitempty"`
	Colors map[string]string `mapstructure:"colors" json:"colors,omitempty"`
}

// KeysOverlay is a partial KeysConfig.
type KeysOverlay struct {
	X     *string  `mapstructure:"x" json:"x,omitempty"`
	Value []string `mapstructure:"value" json:"value,omitempty"`
}

// AxisOverlay is a partial AxisConfig.
type AxisOverlay struct {
	Rotated *bool         `mapstructure:"rotated" json:"rotated,omitempty"`
	X       *XAxisOverlay `mapstructure:"x" json:"x,omitempty"`
	Y       *YAxisOverlay `mapstructure:"y" json:"y,omitempty"`
}

// XAxisOverlay is a partial XAxisConfig.
type XAxisOverlay struct {
	Type   *string      `mapstructure:"type" json:"type,omitempty"`
	Show   *bool        `mapstructure:"show" json:"show,omitempty"`
	Height *int         `mapstructure:"height" json:"height,omitempty"`
	Tick   *TickOverlay `mapstructure:"tick" json:"tick,omitempty"`
}

// TickOverlay is a partial TickConfig.
type TickOverlay struct {
	Multiline *bool `mapstructure:"multiline" json:"multiline,omitempty"`
}

// YAxisOverlay is a partial YAxisConfig.
type YAxisOverlay struct {
	Show    *bool           `mapstructure:"show" json:"show,omitempty"`
	Max     *float64        `mapstructure:"max" json:"max,omitempty"`
	Padding *PaddingOverlay `mapstructure:"padding" json:"padding,omitempty"`
}

// BarOverlay is a partial BarConfig.
type BarOverlay struct {
	Width *int `mapstructure:"width" json:"width,omitempty"`
}

// TooltipOverlay is a partial TooltipConfig. The formatter is owned by the Deriver.
type TooltipOverlay struct {
	Show *bool `mapstructure:"show" json:"show,omitempty"`
}

// SizeOverlay is a partial SizeConfig.
type SizeOverlay struct {
	Height *int `mapstructure:"height" json:"height,omitempty"`
	Width  *int `mapstructure:"width" json:"width,omitempty"`
}

// PaddingOverlay is a partial PaddingConfig.
type PaddingOverlay struct {
	Top    *int `mapstructure:"top" json:"top,omitempty"`
	Right  *int `mapstructure:"right" json:"right,omitempty"`
	Bottom *int `mapstructure:"bottom" json:"bottom,omitempty"`
	Left   *int `mapstructure:"left" json:"left,omitempty"`
}

// TransitionOverlay is a partial TransitionConfig.
type TransitionOverlay struct {
	Duration *int `mapstructure:"duration" json:"duration,omitempty"`
}

// ApplyTo merges the overlay into c in place.
func (o Overlay) ApplyTo(c *RendererConfig) {
	set(&c.BindTo, o.BindTo)
	if o.Data != nil {
		o.Data.applyTo(&c.Data)
	}
	if o.Axis != nil {
		o.Axis.applyTo(&c.Axis)
	}
	if o.Bar != nil {
		set(&c.Bar.Width, o.Bar.Width)
	}
	if o.Tooltip != nil {
		set(&c.Tooltip.Show, o.Tooltip.Show)
	}
	if o.Size != nil {
		set(&c.Size.Height, o.Size.Height)
		set(&c.Size.Width, o.Size.Width)
	}
	if o.Padding != nil {
		o.Padding.applyTo(&c.Padding)
	}
	if o.Transition != nil {
		set(&c.Transition.Duration, o.Transition.Duration)
	}
}

// IsEmpty reports whether the overlay sets nothing at the top level.
func (o Overlay) IsEmpty() bool {
	return o == Overlay{}
}

func (o *DataOverlay) applyTo(d *DataConfig) {
	if o.Order != nil {
		order := *o.Order
		d.Order = &order
	}
	set(&d.Type, o.Type)
	if o.Keys != nil {
		set(&d.Keys.X, o.Keys.X)
		if o.Keys.Value != nil {
			d.Keys.Value = append([]string(nil), o.Keys.Value...)
		}
	}
	if o.Groups != nil {
		d.Groups = make([][]string, len(o.Groups))
		for i, g := range o.Groups {
			d.Groups[i] = append([]string(nil), g...)
		}
	}
	d.Names = mergeMap(d.Names, o.Names)
	d.Colors = mergeMap(d.Colors, o.Colors)
}

func (o *AxisOverlay) applyTo(a *AxisConfig) {
	set(&a.Rotated, o.Rotated)
	if o.X != nil {
		set(&a.X.Type, o.X.Type)
		set(&a.X.Show, o.X.Show)
		set(&a.X.Height, o.X.Height)
		if o.X.Tick != nil {
			set(&a.X.Tick.Multiline, o.X.Tick.Multiline)
		}
	}
	if o.Y != nil {
		set(&a.Y.Show, o.Y.Show)
		set(&a.Y.Max, o.Y.Max)
		if o.Y.Padding != nil {
			o.Y.Padding.applyTo(&a.Y.Padding)
		}
	}
}

func (o *PaddingOverlay) applyTo(p *PaddingConfig) {
	set(&p.Top, o.Top)
	set(&p.Right, o.Right)
	set(&p.Bottom, o.Bottom)
	set(&p.Left, o.Left)
}

// set overwrites dst when src is set.
func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// mergeMap copies src over dst key by key, allocating dst when needed.
func mergeMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
