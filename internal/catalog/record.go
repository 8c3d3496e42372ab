package catalog

import "github.com/samber/mo"

// Record is a plain Template implementation host adapters fill in.
type Record struct {
	TemplateID    string
	TemplateTitle string
	TemplateRoute string
	TemplateType  string

	Start    string
	End      string
	Repeat   mo.Option[string]
	Freq     mo.Option[string]
	Until    mo.Option[string]
	Location mo.Option[string]

	Tags map[string][]string
}

var _ Template = (*Record)(nil)

func (r *Record) ID() string                       { return r.TemplateID }
func (r *Record) Title() string                    { return r.TemplateTitle }
func (r *Record) Route() string                    { return r.TemplateRoute }
func (r *Record) Type() string                     { return r.TemplateType }
func (r *Record) StartRaw() string                 { return r.Start }
func (r *Record) EndRaw() string                   { return r.End }
func (r *Record) RepeatMaskRaw() mo.Option[string] { return r.Repeat }
func (r *Record) FrequencyRaw() mo.Option[string]  { return r.Freq }
func (r *Record) UntilRaw() mo.Option[string]      { return r.Until }
func (r *Record) LocationRaw() mo.Option[string]   { return r.Location }
func (r *Record) Taxonomy() map[string][]string    { return r.Tags }
