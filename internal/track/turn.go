package track

const (
	MinUTurnWidth     = 4
	DefaultUTurnWidth = 5

	MinBankHeight     = 1
	MaxBankHeight     = 5
	DefaultBankHeight = 2
)

// AddTurn lays a three rail corner. The cursor ends facing the new
// direction, two blocks past the corner rail.
func (b *Builder) AddTurn(t Turn) error {
	if !t.Valid() {
		return invalidf("unknown turn %d", int(t))
	}
	if err := b.turn(t); err != nil {
		return err
	}
	b.debugf("turn %s", t)
	return nil
}

func (b *Builder) turn(t Turn) error {
	if err := b.AddRail(); err != nil {
		return err
	}
	b.forward(1)
	if err := b.AddRail(); err != nil {
		return err
	}
	b.cursor.Turn(t)
	b.forward(1)
	if err := b.AddRail(); err != nil {
		return err
	}
	b.forward(1)
	return nil
}

// AddUTurn turns twice in the same direction with a width-2 rail connector
// in between, so the track comes back parallel, width blocks to the side.
// The connector is powered every rail at full power, every PowerInterval-th
// rail at normal power. Corner rails are always plain.
func (b *Builder) AddUTurn(t Turn, width int, power PowerLevel) error {
	if !t.Valid() {
		return invalidf("unknown turn %d", int(t))
	}
	if err := checkMin("u-turn width", width, MinUTurnWidth); err != nil {
		return err
	}
	if !power.valid() {
		return invalidf("unknown power level %d", int(power))
	}
	full := power == PowerFull

	if err := b.AddRail(); err != nil {
		return err
	}
	b.forward(1)
	if err := b.AddRail(); err != nil {
		return err
	}
	b.cursor.Turn(t)
	b.forward(1)

	for i := 0; i < width-2; i++ {
		var err error
		if power != PowerNo && (full || i%b.cfg.PowerInterval == 0) {
			err = b.AddPoweredRail()
		} else {
			err = b.AddRail()
		}
		if err != nil {
			return err
		}
		b.forward(1)
	}

	if err := b.AddRail(); err != nil {
		return err
	}
	b.cursor.Turn(t)
	b.forward(1)
	var err error
	if full {
		err = b.AddPoweredRail()
	} else {
		err = b.AddRail()
	}
	if err != nil {
		return err
	}
	b.forward(1)
	b.debugf("u-turn %s width=%d power=%s", t, width, power)
	return nil
}

// AddBankedTurn rises bankHeight blocks into a turn and descends back to
// the entry height. Banks taller than 3 get one extra powered rail on exit.
func (b *Builder) AddBankedTurn(t Turn, bankHeight int) error {
	if !t.Valid() {
		return invalidf("unknown turn %d", int(t))
	}
	if err := checkRange("bank height", bankHeight, MinBankHeight, MaxBankHeight); err != nil {
		return err
	}
	if err := b.rampUp(bankHeight, 1); err != nil {
		return err
	}
	if err := b.turn(t); err != nil {
		return err
	}
	if err := b.rampDown(bankHeight, 1); err != nil {
		return err
	}
	if bankHeight > 3 {
		if err := b.AddPoweredRail(); err != nil {
			return err
		}
		b.forward(1)
	}
	b.debugf("banked turn %s height=%d", t, bankHeight)
	return nil
}
