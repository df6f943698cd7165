package scene

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/taigrr/sceneview/pkg/logging"
	"github.com/taigrr/sceneview/pkg/math3d"
)

var (
	// ErrMalformed reports unparsable or structurally invalid scene data.
	ErrMalformed = errors.New("malformed scene")
	// ErrIndexOutOfRange reports a face, material or transformation
	// reference that does not name an existing entry.
	ErrIndexOutOfRange = errors.New("index out of range")
)

type xmlScene struct {
	XMLName      xml.Name        `xml:"Scene"`
	Background   string          `xml:"BackgroundColor"`
	Camera       xmlCamera       `xml:"Camera"`
	Ambient      string          `xml:"Lights>AmbientLight"`
	PointLights  []xmlPointLight `xml:"Lights>PointLight"`
	Materials    []xmlMaterial   `xml:"Materials>Material"`
	Translations []xmlIndexed    `xml:"Transformations>Translation"`
	Rotations    []xmlIndexed    `xml:"Transformations>Rotation"`
	Scalings     []xmlIndexed    `xml:"Transformations>Scaling"`
	VertexData   string          `xml:"VertexData"`
	Meshes       []xmlMesh       `xml:"Objects>Mesh"`
}

type xmlCamera struct {
	Position   string `xml:"Position"`
	Gaze       string `xml:"Gaze"`
	Up         string `xml:"Up"`
	NearPlane  string `xml:"NearPlane"`
	NearDist   string `xml:"NearDistance"`
	FarDist    string `xml:"FarDistance"`
	Resolution string `xml:"ImageResolution"`
}

type xmlPointLight struct {
	ID        int    `xml:"id,attr"`
	Position  string `xml:"Position"`
	Intensity string `xml:"Intensity"`
}

type xmlMaterial struct {
	ID       int    `xml:"id,attr"`
	Ambient  string `xml:"AmbientReflectance"`
	Diffuse  string `xml:"DiffuseReflectance"`
	Specular string `xml:"SpecularReflectance"`
	Phong    string `xml:"PhongExponent"`
}

type xmlIndexed struct {
	ID    int    `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type xmlMesh struct {
	ID              int    `xml:"id,attr"`
	Type            string `xml:"type,attr"`
	Material        string `xml:"Material"`
	Transformations string `xml:"Transformations"`
	Faces           string `xml:"Faces"`
}

// Load reads and resolves the scene file at path.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logging.Logger().Info("scene loaded",
		"path", path,
		"vertices", len(s.Vertices),
		"meshes", len(s.Meshes),
		"triangles", s.TriangleCount(),
		"lights", len(s.Lights),
	)
	return s, nil
}

// Parse decodes a scene from r and converts every reference to a validated
// 0-based index.
func Parse(r io.Reader) (*Scene, error) {
	var raw xmlScene
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode xml: %w: %w", ErrMalformed, err)
	}
	return raw.resolve()
}

func (raw *xmlScene) resolve() (*Scene, error) {
	s := &Scene{}
	var err error

	if strings.TrimSpace(raw.Background) != "" {
		if s.Background, err = parseVec3(raw.Background); err != nil {
			return nil, fmt.Errorf("background color: %w", err)
		}
	}

	if s.Camera, err = raw.Camera.resolve(); err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}

	if strings.TrimSpace(raw.Ambient) != "" {
		if s.AmbientLight, err = parseVec3(raw.Ambient); err != nil {
			return nil, fmt.Errorf("ambient light: %w", err)
		}
	}

	for i, xl := range raw.PointLights {
		var l PointLight
		if l.Position, err = parseVec3(xl.Position); err != nil {
			return nil, fmt.Errorf("point light %d position: %w", i+1, err)
		}
		if l.Intensity, err = parseVec3(xl.Intensity); err != nil {
			return nil, fmt.Errorf("point light %d intensity: %w", i+1, err)
		}
		s.Lights = append(s.Lights, l)
	}

	for i, xm := range raw.Materials {
		m, err := xm.resolve()
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i+1, err)
		}
		s.Materials = append(s.Materials, m)
	}

	tables, err := raw.transformTables()
	if err != nil {
		return nil, err
	}

	coords, err := parseFloats(raw.VertexData, -1)
	if err != nil {
		return nil, fmt.Errorf("vertex data: %w", err)
	}
	if len(coords)%3 != 0 {
		return nil, fmt.Errorf("vertex data: %d values is not a multiple of 3: %w", len(coords), ErrMalformed)
	}
	s.Vertices = make([]math3d.Vec3, 0, len(coords)/3)
	for i := 0; i < len(coords); i += 3 {
		s.Vertices = append(s.Vertices, math3d.V3(coords[i], coords[i+1], coords[i+2]))
	}

	for i, xm := range raw.Meshes {
		m, err := xm.resolve(len(s.Vertices), len(s.Materials), tables)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i+1, err)
		}
		s.Meshes = append(s.Meshes, m)
	}

	return s, nil
}

func (xc xmlCamera) resolve() (Camera, error) {
	var c Camera
	var err error
	if c.Position, err = parseVec3(xc.Position); err != nil {
		return c, fmt.Errorf("position: %w", err)
	}
	if c.Gaze, err = parseVec3(xc.Gaze); err != nil {
		return c, fmt.Errorf("gaze: %w", err)
	}
	if c.Up, err = parseVec3(xc.Up); err != nil {
		return c, fmt.Errorf("up: %w", err)
	}
	plane, err := parseFloats(xc.NearPlane, 4)
	if err != nil {
		return c, fmt.Errorf("near plane: %w", err)
	}
	c.Plane = NearPlane{Left: plane[0], Right: plane[1], Bottom: plane[2], Top: plane[3]}
	if c.Near, err = parseFloat(xc.NearDist); err != nil {
		return c, fmt.Errorf("near distance: %w", err)
	}
	if c.Far, err = parseFloat(xc.FarDist); err != nil {
		return c, fmt.Errorf("far distance: %w", err)
	}
	res, err := parseInts(xc.Resolution, 2)
	if err != nil {
		return c, fmt.Errorf("image resolution: %w", err)
	}
	c.Width, c.Height = res[0], res[1]
	if c.Width <= 0 || c.Height <= 0 {
		return c, fmt.Errorf("image resolution %dx%d: %w", c.Width, c.Height, ErrMalformed)
	}
	return c, c.validate()
}

// validate rejects cameras whose projection or view matrix would be
// singular.
func (c Camera) validate() error {
	switch {
	case c.Near <= 0:
		return fmt.Errorf("near distance %v must be positive: %w", c.Near, ErrMalformed)
	case c.Far <= c.Near:
		return fmt.Errorf("far distance %v must exceed near distance %v: %w", c.Far, c.Near, ErrMalformed)
	case c.Plane.Left == c.Plane.Right || c.Plane.Bottom == c.Plane.Top:
		return fmt.Errorf("near plane %v has no area: %w", c.Plane, ErrMalformed)
	case c.Gaze.IsZero():
		return fmt.Errorf("gaze is the zero vector: %w", ErrMalformed)
	case c.Gaze.Normalize().Cross(c.Up.Normalize()).LenSq() < 1e-12:
		return fmt.Errorf("up %v is zero or parallel to gaze %v: %w", c.Up, c.Gaze, ErrMalformed)
	}
	return nil
}

func (xm xmlMaterial) resolve() (Material, error) {
	var m Material
	var err error
	if m.Ambient, err = parseVec3(xm.Ambient); err != nil {
		return m, fmt.Errorf("ambient: %w", err)
	}
	if m.Diffuse, err = parseVec3(xm.Diffuse); err != nil {
		return m, fmt.Errorf("diffuse: %w", err)
	}
	if m.Specular, err = parseVec3(xm.Specular); err != nil {
		return m, fmt.Errorf("specular: %w", err)
	}
	if m.PhongExponent, err = parseFloat(xm.Phong); err != nil {
		return m, fmt.Errorf("phong exponent: %w", err)
	}
	return m, nil
}

// transformTables holds the three shared transformation tables in file order.
type transformTables [3][]Transform

func (raw *xmlScene) transformTables() (transformTables, error) {
	var t transformTables
	for i, x := range raw.Translations {
		v, err := parseVec3(x.Value)
		if err != nil {
			return t, fmt.Errorf("translation %d: %w", i+1, err)
		}
		t[Translate] = append(t[Translate], Translation(v))
	}
	for i, x := range raw.Rotations {
		f, err := parseFloats(x.Value, 4)
		if err != nil {
			return t, fmt.Errorf("rotation %d: %w", i+1, err)
		}
		t[Rotate] = append(t[Rotate], Rotation(f[0], math3d.V3(f[1], f[2], f[3])))
	}
	for i, x := range raw.Scalings {
		v, err := parseVec3(x.Value)
		if err != nil {
			return t, fmt.Errorf("scaling %d: %w", i+1, err)
		}
		t[Scale] = append(t[Scale], Scaling(v))
	}
	return t, nil
}

// lookup resolves a reference such as "r2" to its transformation.
func (t transformTables) lookup(ref string) (Transform, error) {
	if len(ref) < 2 {
		return Transform{}, fmt.Errorf("transformation %q: %w", ref, ErrMalformed)
	}
	var kind TransformKind
	switch ref[0] {
	case 't', 'T':
		kind = Translate
	case 'r', 'R':
		kind = Rotate
	case 's', 'S':
		kind = Scale
	default:
		return Transform{}, fmt.Errorf("transformation %q: unknown kind: %w", ref, ErrMalformed)
	}
	idx, err := strconv.Atoi(ref[1:])
	if err != nil {
		return Transform{}, fmt.Errorf("transformation %q: %w", ref, ErrMalformed)
	}
	if idx < 1 || idx > len(t[kind]) {
		return Transform{}, fmt.Errorf("%s %d of %d: %w", kind, idx, len(t[kind]), ErrIndexOutOfRange)
	}
	return t[kind][idx-1], nil
}

func (xm xmlMesh) resolve(vertexCount, materialCount int, tables transformTables) (Mesh, error) {
	m := Mesh{ID: xm.ID}
	var err error

	if m.Type, err = parseMeshType(xm.Type); err != nil {
		return m, err
	}

	mat, err := parseInts(xm.Material, 1)
	if err != nil {
		return m, fmt.Errorf("material: %w", err)
	}
	if mat[0] < 1 || mat[0] > materialCount {
		return m, fmt.Errorf("material %d of %d: %w", mat[0], materialCount, ErrIndexOutOfRange)
	}
	m.Material = mat[0] - 1

	for _, ref := range strings.Fields(xm.Transformations) {
		tr, err := tables.lookup(ref)
		if err != nil {
			return m, err
		}
		m.Transforms = append(m.Transforms, tr)
	}

	idx, err := parseInts(xm.Faces, -1)
	if err != nil {
		return m, fmt.Errorf("faces: %w", err)
	}
	if len(idx)%3 != 0 {
		return m, fmt.Errorf("faces: %d indices is not a multiple of 3: %w", len(idx), ErrMalformed)
	}
	m.Faces = make([]Face, 0, len(idx)/3)
	for i := 0; i < len(idx); i += 3 {
		var f Face
		for j := range 3 {
			v := idx[i+j]
			if v < 1 || v > vertexCount {
				return m, fmt.Errorf("face %d: vertex %d of %d: %w", i/3+1, v, vertexCount, ErrIndexOutOfRange)
			}
			f.V[j] = v - 1
		}
		m.Faces = append(m.Faces, f)
	}
	return m, nil
}

// parseFloats parses whitespace-separated numbers. With n >= 0 exactly n
// values are required.
func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if n >= 0 && len(fields) != n {
		return nil, fmt.Errorf("got %d values, want %d: %w", len(fields), n, ErrMalformed)
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", f, ErrMalformed)
		}
		out[i] = v
	}
	return out, nil
}

func parseInts(s string, n int) ([]int, error) {
	fields := strings.Fields(s)
	if n >= 0 && len(fields) != n {
		return nil, fmt.Errorf("got %d values, want %d: %w", len(fields), n, ErrMalformed)
	}
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", f, ErrMalformed)
		}
		out[i] = v
	}
	return out, nil
}

func parseFloat(s string) (float64, error) {
	f, err := parseFloats(s, 1)
	if err != nil {
		return 0, err
	}
	return f[0], nil
}

func parseVec3(s string) (math3d.Vec3, error) {
	f, err := parseFloats(s, 3)
	if err != nil {
		return math3d.Vec3{}, err
	}
	return math3d.V3(f[0], f[1], f[2]), nil
}
