package iceberg

import (
	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/types"
)

// Translation is the outcome of mapping a source schema onto the table's
// target schema: the (possibly evolved) revision to write with and the
// source-column -> field-id mapping.
type Translation struct {
	Schema  *types.TargetSchema
	Mapping types.ColumnMapping
	// Evolved is set when the revision differs from the committed one; the
	// new revision is committed together with the next snapshot, never on
	// its own.
	Evolved bool
}

// Translate maps the source schema onto a target revision. With no current
// schema (table creation) every column gets a fresh field id and keeps its
// source nullability. Against an existing schema the evolution is strictly
// additive: new columns are appended as optional with newly minted ids,
// int->long and float->double widen in place, and any other type change
// fails the run before extraction.
func Translate(source *types.SourceSchema, current *types.TargetSchema) (*Translation, error) {
	mapping := types.ColumnMapping{}

	if current == nil {
		schema := &types.TargetSchema{SchemaID: constants.InitialSchemaID}
		nextID := constants.FirstFieldID
		for _, col := range source.Columns {
			iceType, ok := col.Type.ToIceberg()
			if !ok {
				return nil, &types.UnsupportedTypeError{Column: col.Name, RawType: col.RawType}
			}
			schema.Fields = append(schema.Fields, types.Field{
				ID:       nextID,
				Name:     col.Name,
				Type:     iceType,
				Required: !col.Nullable,
			})
			mapping[col.Name] = nextID
			nextID++
		}
		return &Translation{Schema: schema, Mapping: mapping, Evolved: true}, nil
	}

	next := current.Clone()
	nextID := current.MaxFieldID() + 1
	for _, col := range source.Columns {
		iceType, ok := col.Type.ToIceberg()
		if !ok {
			return nil, &types.UnsupportedTypeError{Column: col.Name, RawType: col.RawType}
		}

		field, exists := next.Field(col.Name)
		if !exists {
			// appended columns are optional so data files written under
			// older revisions stay valid (the column reads as null)
			next.Fields = append(next.Fields, types.Field{
				ID:       nextID,
				Name:     col.Name,
				Type:     iceType,
				Required: false,
			})
			mapping[col.Name] = nextID
			nextID++
			continue
		}

		mapping[col.Name] = field.ID
		if !iceType.Widens(field.Type) && !field.Type.Widens(iceType) {
			return nil, &types.SchemaEvolutionError{Column: col.Name, From: field.Type, To: iceType}
		}
		for idx := range next.Fields {
			if next.Fields[idx].ID != field.ID {
				continue
			}
			if iceType.Widens(field.Type) {
				next.Fields[idx].Type = iceType
			}
			if col.Nullable && next.Fields[idx].Required {
				next.Fields[idx].Required = false
			}
		}
	}

	evolved := !next.Equal(current)
	if evolved {
		next.SchemaID = current.SchemaID + 1
	} else {
		next = current
	}
	return &Translation{Schema: next, Mapping: mapping, Evolved: evolved}, nil
}
