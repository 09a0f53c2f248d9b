// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package gatesim is a discrete-event simulator for hierarchical digital logic
circuits.

Signals are buses of four-valued bits (see Value): Zero, One, Unknown for
floating wires and Error for conflicting drivers. Parts are described by a
PartSpec and composed into chips with Chip, using connection strings in the
style of a hardware description language:

	halfAdder, err := gatesim.Chip("HalfAdder", "a, b", "sum, carry",
		hwlib.Xor("a=a, b=b, out=sum"),
		hwlib.And("a=a, b=b, out=carry"),
	)

A Circuit runs the top-level parts. Each part has a propagation delay in
ticks; when a net changes, the parts reading it are scheduled for
re-evaluation at the current tick plus their delay. All events of a tick are
processed as one batch: parts of a batch only see the values committed by
previous batches. Chip instances hold a private nested state that is run until
stable whenever the chip is evaluated.

Feedback that does not settle within an iteration budget halts the circuit
with an *OscillationError until Reset is called.
*/
package gatesim
