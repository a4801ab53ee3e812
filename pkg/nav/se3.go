package nav

// Vec3 is a 3D position in meters.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quat is a unit quaternion describing an orientation.
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity returns the identity rotation.
func Identity() Quat {
	return Quat{W: 1}
}

// Mul returns the Hamilton product q*o.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Inverse returns the inverse rotation. Quaternions here are unit length, so
// the conjugate suffices.
func (q Quat) Inverse() Quat {
	return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Rotate applies the rotation to a vector.
func (q Quat) Rotate(v Vec3) Vec3 {
	p := Quat{X: v.X, Y: v.Y, Z: v.Z}
	r := q.Mul(p).Mul(q.Inverse())
	return Vec3{X: r.X, Y: r.Y, Z: r.Z}
}

// SE3Pose is a rigid transform: a rotation followed by a translation.
type SE3Pose struct {
	Position Vec3 `json:"position"`
	Rotation Quat `json:"rotation"`
}

// IdentityPose returns the identity transform.
func IdentityPose() SE3Pose {
	return SE3Pose{Rotation: Identity()}
}

// Mul composes two transforms: (a.Mul(b)).Apply(v) == a.Apply(b.Apply(v)).
func (p SE3Pose) Mul(o SE3Pose) SE3Pose {
	t := p.Rotation.Rotate(o.Position)
	return SE3Pose{
		Position: Vec3{X: p.Position.X + t.X, Y: p.Position.Y + t.Y, Z: p.Position.Z + t.Z},
		Rotation: p.Rotation.Mul(o.Rotation),
	}
}

// Inverse returns the inverse transform.
func (p SE3Pose) Inverse() SE3Pose {
	inv := p.Rotation.Inverse()
	t := inv.Rotate(p.Position)
	return SE3Pose{
		Position: Vec3{X: -t.X, Y: -t.Y, Z: -t.Z},
		Rotation: inv,
	}
}

// Apply transforms a point from the pose's child frame into its parent frame.
func (p SE3Pose) Apply(v Vec3) Vec3 {
	r := p.Rotation.Rotate(v)
	return Vec3{X: p.Position.X + r.X, Y: p.Position.Y + r.Y, Z: p.Position.Z + r.Z}
}
