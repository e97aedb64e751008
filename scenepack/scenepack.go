// Package scenepack holds the built-in scenes and reads and writes scene
// files.
//
// A scene file is the JSON encoding of a google.protobuf.Struct:
//
//	{"spheres": [
//	  {"center": [0, 0, -1], "radius": 0.5,
//	   "material": {"kind": "lambertian", "albedo": [0.1, 0.2, 0.5]}},
//	  ...
//	]}
//
// Metal materials also carry "fuzz", dielectrics carry "refractionIndex"
// instead of "albedo".
package scenepack

import (
	"fmt"
	"os"
	"sort"

	"rtweekend/camera"
	"rtweekend/geometry"
	"rtweekend/material"
	"rtweekend/randsource"
	"rtweekend/vmath/vec3"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Builder populates a world, drawing any randomness it needs from src.
type Builder func(src randsource.Source) *geometry.World

var builders = map[string]Builder{
	"random":   Random,
	"pastel":   Pastel,
	"moon":     Moon,
	"red-blue": RedBlue,
	"normal":   Normal,
	"perf":     Perf,
}

// Lookup returns the built-in scene called name.
func Lookup(name string) (Builder, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (have %v)", name, Names())
	}
	return b, nil
}

// Names lists the built-in scenes in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for n := range builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultCamera looks at the origin from (13, 2, 3) with a 20 degree field of
// view and no defocus blur.
func DefaultCamera(aspectRatio float64) camera.Params {
	return camera.Params{
		LookFrom:      vec3.T{13, 2, 3},
		LookAt:        vec3.T{0, 0, 0},
		Up:            vec3.T{0, 1, 0},
		VerticalFOV:   20,
		AspectRatio:   aspectRatio,
		Aperture:      0,
		FocusDistance: 1,
	}
}

func LoadScene(fileName string) (*geometry.World, error) {
	fileBytes, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("while opening scene file: %w", err)
	}

	w, err := ParseScene(fileBytes)
	if err != nil {
		return nil, fmt.Errorf("while parsing scene file %q: %w", fileName, err)
	}
	return w, nil
}

func ParseScene(b []byte) (*geometry.World, error) {
	protoScene := &structpb.Struct{}
	if err := protojson.Unmarshal(b, protoScene); err != nil {
		return nil, fmt.Errorf("while unmarshaling scene: %w", err)
	}

	spheres := protoScene.GetFields()["spheres"].GetListValue()
	if spheres == nil {
		return nil, fmt.Errorf("scene has no \"spheres\" list")
	}

	w := &geometry.World{}
	for i, v := range spheres.GetValues() {
		s, err := convertSphere(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("while converting sphere %d: %w", i, err)
		}
		w.Add(s)
	}
	return w, nil
}

func convertSphere(in *structpb.Struct) (geometry.Sphere, error) {
	if in == nil {
		return geometry.Sphere{}, fmt.Errorf("sphere is not an object")
	}
	fields := in.GetFields()

	center, err := convertVec3(fields["center"])
	if err != nil {
		return geometry.Sphere{}, fmt.Errorf("while reading center: %w", err)
	}

	radius, err := convertNumber(fields["radius"])
	if err != nil {
		return geometry.Sphere{}, fmt.Errorf("while reading radius: %w", err)
	}

	m, err := convertMaterial(fields["material"].GetStructValue())
	if err != nil {
		return geometry.Sphere{}, fmt.Errorf("while reading material: %w", err)
	}

	return geometry.Sphere{
		Center:   center,
		Radius:   radius,
		Material: m,
	}, nil
}

func convertMaterial(in *structpb.Struct) (material.Material, error) {
	if in == nil {
		return material.Material{}, fmt.Errorf("missing material")
	}
	fields := in.GetFields()

	switch kind := fields["kind"].GetStringValue(); kind {
	case "lambertian":
		albedo, err := convertVec3(fields["albedo"])
		if err != nil {
			return material.Material{}, fmt.Errorf("while reading albedo: %w", err)
		}
		return material.NewLambertian(albedo), nil
	case "metal":
		albedo, err := convertVec3(fields["albedo"])
		if err != nil {
			return material.Material{}, fmt.Errorf("while reading albedo: %w", err)
		}
		fuzz := 0.0
		if v, ok := fields["fuzz"]; ok {
			fuzz, err = convertNumber(v)
			if err != nil {
				return material.Material{}, fmt.Errorf("while reading fuzz: %w", err)
			}
		}
		return material.NewMetal(albedo, fuzz), nil
	case "dielectric":
		idx, err := convertNumber(fields["refractionIndex"])
		if err != nil {
			return material.Material{}, fmt.Errorf("while reading refractionIndex: %w", err)
		}
		return material.NewDielectric(idx), nil
	default:
		return material.Material{}, fmt.Errorf("unknown material kind %q", kind)
	}
}

func convertVec3(in *structpb.Value) (vec3.T, error) {
	l := in.GetListValue().GetValues()
	if len(l) != 3 {
		return vec3.T{}, fmt.Errorf("want a list of 3 numbers, got %v", in)
	}
	var out vec3.T
	for i, v := range l {
		f, err := convertNumber(v)
		if err != nil {
			return vec3.T{}, fmt.Errorf("while reading component %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// convertNumber rejects anything that isn't a JSON number, including a
// missing value.
func convertNumber(in *structpb.Value) (float64, error) {
	n, ok := in.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("want a number, got %v", in)
	}
	return n.NumberValue, nil
}

// MarshalScene encodes w in the scene file format.
func MarshalScene(w *geometry.World) ([]byte, error) {
	spheres := make([]interface{}, 0, w.Len())
	for _, s := range w.Spheres {
		spheres = append(spheres, map[string]interface{}{
			"center":   vecToList(s.Center),
			"radius":   s.Radius,
			"material": materialToMap(s.Material),
		})
	}

	protoScene, err := structpb.NewStruct(map[string]interface{}{
		"spheres": spheres,
	})
	if err != nil {
		return nil, fmt.Errorf("while building scene struct: %w", err)
	}

	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(protoScene)
	if err != nil {
		return nil, fmt.Errorf("while marshaling scene: %w", err)
	}
	return b, nil
}

func vecToList(v vec3.T) []interface{} {
	return []interface{}{v[0], v[1], v[2]}
}

func materialToMap(m material.Material) map[string]interface{} {
	out := map[string]interface{}{
		"kind": m.Kind.String(),
	}
	switch m.Kind {
	case material.KindLambertian:
		out["albedo"] = vecToList(m.Albedo)
	case material.KindMetal:
		out["albedo"] = vecToList(m.Albedo)
		out["fuzz"] = m.Fuzz
	case material.KindDielectric:
		out["refractionIndex"] = m.RefractionIndex
	}
	return out
}
