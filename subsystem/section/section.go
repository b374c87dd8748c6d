// Package section validates submitted form values for each workflow section.
//
// Form values are converted to a JSON document which is checked against
// an embedded JSON schema for the section. Valid documents become the
// section's submit event; invalid ones produce field errors suitable for
// storing as a draft.
package section

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/micromdm/nanointake/workflow"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	msgRequired = "required"
	msgInvalid  = "invalid"

	// field name of errors about the document as a whole
	rootField = "(root)"
)

type kind int

const (
	kindString kind = iota
	kindBool
	kindList
	kindDigits
)

type field struct {
	name string
	kind kind
}

// fields are the form fields read for each section.
// Parent details are read separately as indexed fields.
var fields = map[workflow.Section][]field{
	workflow.SectionPrivacyStatement: {{"agreedToTerms", kindBool}},
	workflow.SectionRequestDetails:   {{"scenario", kindString}, {"type", kindString}},
	workflow.SectionPrimaryDocuments: {
		{"documentType", kindString},
		{"registrationNumber", kindString},
		{"clientNumber", kindDigits},
		{"givenName", kindString},
		{"lastName", kindString},
		{"dateOfBirth", kindString},
	},
	workflow.SectionSecondaryDocument: {{"documentType", kindString}, {"expiryDate", kindString}},
	workflow.SectionCurrentNameInfo: {
		{"preferredSameAsDocumentName", kindBool},
		{"firstName", kindString},
		{"middleName", kindString},
		{"lastName", kindString},
	},
	workflow.SectionPersonalInformation: {
		{"firstNamesPreviouslyUsed", kindList},
		{"lastNameAtBirth", kindString},
		{"lastNamesPreviouslyUsed", kindList},
		{"gender", kindString},
	},
	workflow.SectionBirthDetails: {
		{"country", kindString},
		{"province", kindString},
		{"city", kindString},
		{"fromMultipleBirth", kindBool},
	},
	workflow.SectionParentDetails: nil,
	workflow.SectionPreviousSIN:   {{"hasPreviousSin", kindString}, {"socialInsuranceNumber", kindDigits}},
	workflow.SectionContactInformation: {
		{"preferredLanguage", kindString},
		{"primaryPhoneNumber", kindString},
		{"secondaryPhoneNumber", kindString},
		{"emailAddress", kindString},
		{"country", kindString},
		{"address", kindString},
		{"city", kindString},
		{"province", kindString},
		{"postalCode", kindString},
	},
}

// MaxParents is the number of indexed parent entries read from a form.
const MaxParents = 4

var (
	schemasOnce sync.Once
	schemas     map[workflow.Section]*gojsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[workflow.Section]*gojsonschema.Schema, error) {
	schemasOnce.Do(func() {
		schemas = make(map[workflow.Section]*gojsonschema.Schema)
		for _, sec := range workflow.Sections() {
			b, err := schemaFS.ReadFile("schemas/" + string(sec) + ".json")
			if err != nil {
				schemasErr = fmt.Errorf("reading schema for %s: %w", sec, err)
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
			if err != nil {
				schemasErr = fmt.Errorf("compiling schema for %s: %w", sec, err)
				return
			}
			schemas[sec] = s
		}
	})
	return schemas, schemasErr
}

// CheckSchemas makes sure every section schema compiles.
func CheckSchemas() error {
	_, err := loadSchemas()
	return err
}

// parseBool converts yes/no style form values.
// Unrecognized values are returned as-is so the schema rejects them.
func parseBool(v string) interface{} {
	switch strings.ToLower(v) {
	case "yes", "on", "true":
		return true
	case "no", "off", "false":
		return false
	}
	return v
}

func stripDigits(v string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, v)
}

func readField(doc map[string]interface{}, values url.Values, key string, f field) {
	if f.kind == kindList {
		var list []interface{}
		for _, v := range values[key] {
			if v = strings.TrimSpace(v); v != "" {
				list = append(list, v)
			}
		}
		if len(list) > 0 {
			doc[f.name] = list
		}
		return
	}
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return
	}
	switch f.kind {
	case kindBool:
		doc[f.name] = parseBool(v)
	case kindDigits:
		doc[f.name] = stripDigits(v)
	default:
		doc[f.name] = v
	}
}

var parentFields = []field{
	{"unavailable", kindBool},
	{"givenName", kindString},
	{"lastName", kindString},
}

// readParents reads fields named like "parents.0.givenName".
func readParents(values url.Values) []interface{} {
	var parents []interface{}
	for i := 0; i < MaxParents; i++ {
		p := make(map[string]interface{})
		for _, f := range parentFields {
			readField(p, values, "parents."+strconv.Itoa(i)+"."+f.name, f)
		}
		if len(p) > 0 {
			parents = append(parents, p)
		}
	}
	return parents
}

// document converts form values into the JSON document of sec.
// Empty values are left out.
func document(sec workflow.Section, values url.Values) map[string]interface{} {
	doc := make(map[string]interface{})
	for _, f := range fields[sec] {
		readField(doc, values, f.name, f)
	}
	if sec == workflow.SectionParentDetails {
		if parents := readParents(values); len(parents) > 0 {
			doc["parents"] = parents
		}
	}
	return doc
}

// fieldErrors converts schema validation errors to field errors.
// The first error for a field wins.
func fieldErrors(result *gojsonschema.Result) workflow.FieldErrors {
	errs := make(workflow.FieldErrors)
	for _, desc := range result.Errors() {
		switch desc.Type() {
		case "condition_then", "condition_else":
			// summaries of the failed conditional keyword
			continue
		}
		name := desc.Field()
		msg := msgInvalid
		if desc.Type() == "required" {
			prop, _ := desc.Details()["property"].(string)
			if name == rootField {
				name = prop
			} else {
				name = name + "." + prop
			}
			msg = msgRequired
		}
		if name == rootField || name == "" {
			continue
		}
		if _, ok := errs[name]; !ok {
			errs[name] = msg
		}
	}
	if len(errs) < 1 {
		errs["form"] = msgInvalid
	}
	return errs
}

// validSIN checks a social insurance number with the Luhn algorithm.
func validSIN(sin string) bool {
	if len(sin) != 9 {
		return false
	}
	var sum int
	for i, r := range sin {
		if r < '0' || r > '9' {
			return false
		}
		d := int(r - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

// event decodes a validated document into the submit event of sec.
func event(sec workflow.Section, b []byte) (workflow.Event, error) {
	var err error
	switch sec {
	case workflow.SectionPrivacyStatement:
		var ev workflow.SubmitPrivacyStatement
		err = json.Unmarshal(b, &ev.Data)
		return ev, err
	case workflow.SectionRequestDetails:
		var ev workflow.SubmitRequestDetails
		err = json.Unmarshal(b, &ev.Data)
		return ev, err
	case workflow.SectionPrimaryDocuments:
		var ev workflow.SubmitPrimaryDocuments
		err = json.Unmarshal(b, &ev.Data)
		return ev, err
	case workflow.SectionSecondaryDocument:
		var ev workflow.SubmitSecondaryDocument
		err = json.Unmarshal(b, &ev.Data)
		return ev, err
	case workflow.SectionCurrentNameInfo:
		var ev workflow.SubmitCurrentNameInfo
		err = json.Unmarshal(b, &ev.Data)
		return ev, err
	case workflow.SectionPersonalInformation:
		var ev workflow.SubmitPersonalInformation
		err = json.Unmarshal(b, &ev.Data)
		return ev, err
	case workflow.SectionBirthDetails:
		var ev workflow.SubmitBirthDetails
		err = json.Unmarshal(b, &ev.Data)
		return ev, err
	case workflow.SectionParentDetails:
		var ev workflow.SubmitParentDetails
		err = json.Unmarshal(b, &ev.Data)
		return ev, err
	case workflow.SectionPreviousSIN:
		var ev workflow.SubmitPreviousSIN
		err = json.Unmarshal(b, &ev.Data)
		return ev, err
	case workflow.SectionContactInformation:
		var ev workflow.SubmitContactInformation
		err = json.Unmarshal(b, &ev.Data)
		return ev, err
	}
	return nil, fmt.Errorf("%w: %q", workflow.ErrUnknownSection, sec)
}

// Validate checks the form values submitted for sec.
// On success the section's submit event is returned with nil errors.
// Otherwise the event is nil and the field errors describe the problems.
func Validate(sec workflow.Section, values url.Values) (workflow.Event, workflow.FieldErrors) {
	all, err := loadSchemas()
	if err != nil {
		return nil, workflow.FieldErrors{"form": err.Error()}
	}
	schema, ok := all[sec]
	if !ok {
		return nil, workflow.FieldErrors{"section": msgInvalid}
	}

	doc := document(sec, values)
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, workflow.FieldErrors{"form": err.Error()}
	}
	if !result.Valid() {
		return nil, fieldErrors(result)
	}
	if sec == workflow.SectionPreviousSIN {
		if sin, ok := doc["socialInsuranceNumber"].(string); ok && !validSIN(sin) {
			return nil, workflow.FieldErrors{"socialInsuranceNumber": msgInvalid}
		}
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, workflow.FieldErrors{"form": err.Error()}
	}
	ev, err := event(sec, b)
	if err != nil {
		return nil, workflow.FieldErrors{"form": err.Error()}
	}
	return ev, nil
}

// DraftValues flattens form values for storing as a draft.
// Repeated values are joined with newlines. The action field is dropped.
func DraftValues(values url.Values) map[string]string {
	r := make(map[string]string)
	for k, vs := range values {
		if k == "action" || len(vs) < 1 {
			continue
		}
		r[k] = strings.Join(vs, "\n")
	}
	return r
}
