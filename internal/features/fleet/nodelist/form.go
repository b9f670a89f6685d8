package nodelist

import (
	"fmt"
	"strconv"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
)

// InterpretForm converts a submitted configure form into a patch. A field
// is taken only when its checkbox, the field name prefixed with "_", is
// set. Property lists are taken whenever present and may be either a
// single object or a list of objects.
func InterpretForm(form map[string]interface{}) (SettingsPatch, error) {
	var patch SettingsPatch

	if checked(form, "description") {
		patch.Description = text(form["description"])
	}
	if checked(form, "remoteFS") {
		patch.RemoteFS = text(form["remoteFS"])
	}
	if checked(form, "numExecutors") {
		patch.NumExecutors = text(form["numExecutors"])
	}
	if checked(form, "mode") {
		mode, err := domain.ParseMode(*text(form["mode"]))
		if err != nil {
			return SettingsPatch{}, err
		}
		patch.Mode = &mode
	}
	if checked(form, "labelString") {
		patch.SetLabels = text(form["labelString"])
	}
	if checked(form, "addLabelString") {
		patch.AddLabels = text(form["addLabelString"])
	}
	if checked(form, "removeLabelString") {
		patch.RemoveLabels = text(form["removeLabelString"])
	}

	if checked(form, "launcher") {
		var rec domain.LauncherRecord
		if err := domain.DecodeObject(form["launcher"], &rec); err != nil {
			return SettingsPatch{}, common.InvalidInputError("launcher: %v", err)
		}
		launcher, err := rec.Launcher()
		if err != nil {
			return SettingsPatch{}, common.InvalidInputError("launcher: %v", err)
		}
		patch.Launcher = launcher
	}
	if checked(form, "retentionStrategy") {
		var rec domain.RetentionRecord
		if err := domain.DecodeObject(form["retentionStrategy"], &rec); err != nil {
			return SettingsPatch{}, common.InvalidInputError("retention strategy: %v", err)
		}
		strategy, err := rec.RetentionStrategy()
		if err != nil {
			return SettingsPatch{}, common.InvalidInputError("retention strategy: %v", err)
		}
		patch.RetentionStrategy = strategy
	}

	for _, obj := range objects(form["addOrChangeProperties"]) {
		var rec domain.PropertyRecord
		if err := domain.DecodeObject(obj, &rec); err != nil {
			return SettingsPatch{}, common.InvalidInputError("property: %v", err)
		}
		prop, err := rec.Property()
		if err != nil {
			return SettingsPatch{}, common.InvalidInputError("property: %v", err)
		}
		patch.AddOrChangeProperties = append(patch.AddOrChangeProperties, prop)
	}
	for _, obj := range objects(form["removeProperties"]) {
		m, ok := obj.(map[string]interface{})
		if !ok {
			return SettingsPatch{}, common.InvalidInputError("removeProperties entries must be objects")
		}
		kind, _ := m["kind"].(string)
		if kind == "" {
			return SettingsPatch{}, common.InvalidInputError("removeProperties entry without kind")
		}
		patch.RemoveProperties = append(patch.RemoveProperties, kind)
	}

	return patch, nil
}

func checked(form map[string]interface{}, field string) bool {
	on, _ := form["_"+field].(bool)
	return on
}

// text renders a scalar form value. Numbers arrive as float64 once the
// form has passed through a JSON decoder.
func text(v interface{}) *string {
	var s string
	switch t := v.(type) {
	case nil:
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}
	return &s
}

func objects(v interface{}) []interface{} {
	switch t := v.(type) {
	case []interface{}:
		return t
	case map[string]interface{}:
		return []interface{}{t}
	}
	return nil
}
