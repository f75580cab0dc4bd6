// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import "fmt"

// Command is a paired velocity instruction sent once per tick.
// Linear is in m/s, Angular in rad/s.
type Command struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

// Stop is the zero command.
var Stop = Command{}

// IsStop reports whether c commands the robot to rest.
func (c Command) IsStop() bool {
	return c.Linear == 0 && c.Angular == 0
}

func (c Command) String() string {
	return fmt.Sprintf("linear=%.3f angular=%.3f", c.Linear, c.Angular)
}

// Vector3 mirrors geometry_msgs/Vector3.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Twist mirrors geometry_msgs/Twist, the wire form of a Command.
// Forward speed travels in Linear.X and yaw rate in Angular.Z.
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// Twist converts c to its wire form.
func (c Command) Twist() Twist {
	return Twist{
		Linear:  Vector3{X: c.Linear},
		Angular: Vector3{Z: c.Angular},
	}
}

// Command extracts the planar command from t. Axes other than
// linear.x and angular.z are ignored.
func (t Twist) Command() Command {
	return Command{Linear: t.Linear.X, Angular: t.Angular.Z}
}
