package commands

import (
	"github.com/spf13/pflag"

	"github.com/Sumatoshi-tech/commitprefix/pkg/commitobj"
)

// fieldValue is a pflag.Value accepting author or committer.
type fieldValue struct {
	field *commitobj.Field
}

var _ pflag.Value = fieldValue{}

func newFieldValue(def commitobj.Field, target *commitobj.Field) fieldValue {
	*target = def

	return fieldValue{field: target}
}

func (v fieldValue) String() string {
	if v.field == nil {
		return ""
	}

	return string(*v.field)
}

func (v fieldValue) Set(s string) error {
	field, err := commitobj.ParseField(s)
	if err != nil {
		return err
	}

	*v.field = field

	return nil
}

func (v fieldValue) Type() string {
	return "field"
}
