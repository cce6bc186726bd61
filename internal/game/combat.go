package game

// killPlayer kills victim and credits every attributed bomb owner except
// the victim itself. It returns the ids that were credited.
func (g *Game) killPlayer(victim *Player, owners []int) []int {
	victim.Kill(g.frame)
	g.sounds[SoundDying]++
	g.statusChanged = true

	var credited []int
	for _, id := range owners {
		if id == victim.ID {
			continue
		}
		if killer := g.player(id); killer != nil {
			killer.Kills++
			credited = append(credited, id)
		}
	}
	return credited
}

// refundBombs gives every detonated bomb back to its owner
func (g *Game) refundBombs(blasts []Blast) {
	for _, bl := range blasts {
		if owner := g.player(bl.Owner); owner != nil {
			owner.Bombs++
		}
	}
}
