package mesh

import (
	"github.com/chewxy/math32"
)

// NewCube creates a unit-extent cube mesh centered on the origin, scaled by
// size, with per-face normals and tangents.
//
// Parameters:
//   - name: the mesh identifier
//   - size: half-extent scale of the cube
//
// Returns:
//   - Mesh: the cube mesh
func NewCube(name string, size float32) Mesh {
	type face struct {
		normal  [3]float32
		tangent [3]float32
	}
	faces := []face{
		{normal: [3]float32{0, 0, 1}, tangent: [3]float32{1, 0, 0}},
		{normal: [3]float32{0, 0, -1}, tangent: [3]float32{-1, 0, 0}},
		{normal: [3]float32{1, 0, 0}, tangent: [3]float32{0, 0, -1}},
		{normal: [3]float32{-1, 0, 0}, tangent: [3]float32{0, 0, 1}},
		{normal: [3]float32{0, 1, 0}, tangent: [3]float32{1, 0, 0}},
		{normal: [3]float32{0, -1, 0}, tangent: [3]float32{1, 0, 0}},
	}

	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		n := f.normal
		t := f.tangent
		// bitangent = normal x tangent
		b := [3]float32{
			n[1]*t[2] - n[2]*t[1],
			n[2]*t[0] - n[0]*t[2],
			n[0]*t[1] - n[1]*t[0],
		}
		base := uint32(len(vertices))
		corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
		uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
		for i, c := range corners {
			vertices = append(vertices, Vertex{
				Position: [3]float32{
					(n[0] + c[0]*t[0] + c[1]*b[0]) * size,
					(n[1] + c[0]*t[1] + c[1]*b[1]) * size,
					(n[2] + c[0]*t[2] + c[1]*b[2]) * size,
				},
				Normal:   n,
				TexCoord: uvs[i],
				Color:    [4]float32{1, 1, 1, 1},
				Tangent:  [4]float32{t[0], t[1], t[2], 1},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewMesh(name, vertices, indices)
}

// NewPlane creates a flat quad mesh on the XZ plane facing +Y, centered on the
// origin.
//
// Parameters:
//   - name: the mesh identifier
//   - width: extent along X
//   - depth: extent along Z
//
// Returns:
//   - Mesh: the plane mesh
func NewPlane(name string, width, depth float32) Mesh {
	hw, hd := width/2, depth/2
	vertices := []Vertex{
		{Position: [3]float32{-hw, 0, -hd}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 0}, Color: [4]float32{1, 1, 1, 1}, Tangent: [4]float32{1, 0, 0, 1}},
		{Position: [3]float32{hw, 0, -hd}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{1, 0}, Color: [4]float32{1, 1, 1, 1}, Tangent: [4]float32{1, 0, 0, 1}},
		{Position: [3]float32{hw, 0, hd}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{1, 1}, Color: [4]float32{1, 1, 1, 1}, Tangent: [4]float32{1, 0, 0, 1}},
		{Position: [3]float32{-hw, 0, hd}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 1}, Color: [4]float32{1, 1, 1, 1}, Tangent: [4]float32{1, 0, 0, 1}},
	}
	indices := []uint32{0, 2, 1, 0, 3, 2}
	return NewMesh(name, vertices, indices)
}

// NewSphere creates a UV sphere mesh centered on the origin.
//
// Parameters:
//   - name: the mesh identifier
//   - radius: the sphere radius
//   - segments: longitudinal subdivisions (minimum 3)
//   - rings: latitudinal subdivisions (minimum 2)
//
// Returns:
//   - Mesh: the sphere mesh
func NewSphere(name string, radius float32, segments, rings int) Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	vertices := make([]Vertex, 0, (rings+1)*(segments+1))
	for ring := 0; ring <= rings; ring++ {
		phi := math32.Pi * float32(ring) / float32(rings)
		y := math32.Cos(phi)
		r := math32.Sin(phi)
		for seg := 0; seg <= segments; seg++ {
			theta := 2 * math32.Pi * float32(seg) / float32(segments)
			x := r * math32.Cos(theta)
			z := r * math32.Sin(theta)
			vertices = append(vertices, Vertex{
				Position: [3]float32{x * radius, y * radius, z * radius},
				Normal:   [3]float32{x, y, z},
				TexCoord: [2]float32{float32(seg) / float32(segments), float32(ring) / float32(rings)},
				Color:    [4]float32{1, 1, 1, 1},
				Tangent:  [4]float32{-math32.Sin(theta), 0, math32.Cos(theta), 1},
			})
		}
	}

	indices := make([]uint32, 0, rings*segments*6)
	stride := uint32(segments + 1)
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			a := uint32(ring)*stride + uint32(seg)
			b := a + stride
			indices = append(indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return NewMesh(name, vertices, indices)
}
