package engine

import (
	"context"
	"math/rand"
	"sort"

	"github.com/piwi3910/SpritePack/internal/model"
)

// GeneticConfig holds parameters for the ordering refinement search.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	TournamentSize int
	EliteCount     int
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 30,
		Generations:    40,
		MutationRate:   0.15,
		TournamentSize: 3,
		EliteCount:     2,
	}
}

// geneticConfigFrom applies the settings on top of the defaults.
func geneticConfigFrom(s model.Settings) GeneticConfig {
	cfg := DefaultGeneticConfig()
	cfg.Generations = s.Generations
	if s.PopulationSize > 0 {
		cfg.PopulationSize = s.PopulationSize
	}
	cfg.MutationRate = s.MutationRate
	if cfg.EliteCount > cfg.PopulationSize {
		cfg.EliteCount = cfg.PopulationSize
	}
	return cfg
}

// chromosome is a placement sequence: a permutation of rect indices.
type chromosome struct {
	order  []int
	result attempt
}

// fitter reports whether a should rank before b. Failed layouts are unfit.
func fitter(a, b chromosome) bool {
	return better(a.result, b.result)
}

// geneticOptimizer searches placement sequences with order crossover,
// starting from the best hint ordering.
type geneticOptimizer struct {
	config GeneticConfig
	size   int
	rng    *rand.Rand

	// evaluate packs every order and returns the attempts by index.
	evaluate func(orders [][]int) []attempt
}

func newGeneticOptimizer(config GeneticConfig, size int, seed int64, evaluate func([][]int) []attempt) *geneticOptimizer {
	return &geneticOptimizer{
		config:   config,
		size:     size,
		rng:      rand.New(rand.NewSource(seed)),
		evaluate: evaluate,
	}
}

// optimize evolves the population and returns the best chromosome found and
// the number of layouts evaluated.
func (g *geneticOptimizer) optimize(ctx context.Context, seed chromosome) (chromosome, int, error) {
	population := g.initPopulation(seed)
	evaluated := g.score(population[1:])

	for gen := 0; gen < g.config.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return chromosome{}, evaluated, err
		}

		// Sort by fitness, stable so equal layouts keep their rank.
		sort.SliceStable(population, func(i, j int) bool {
			return fitter(population[i], population[j])
		})

		newPop := make([]chromosome, 0, g.config.PopulationSize)
		for i := 0; i < g.config.EliteCount && i < len(population); i++ {
			newPop = append(newPop, g.copyChromosome(population[i]))
		}

		// Offspring are bred first and packed together, so the random
		// stream does not depend on evaluation scheduling.
		offspring := make([]chromosome, 0, g.config.PopulationSize-len(newPop))
		for len(newPop)+len(offspring) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)
			child := g.orderCrossover(parent1, parent2)
			g.mutate(&child)
			offspring = append(offspring, child)
		}
		evaluated += g.score(offspring)

		population = append(newPop, offspring...)
	}

	best := population[0]
	for _, c := range population[1:] {
		if fitter(c, best) {
			best = c
		}
	}
	return best, evaluated, nil
}

// score packs every chromosome in place and returns how many were packed.
func (g *geneticOptimizer) score(cs []chromosome) int {
	if len(cs) == 0 {
		return 0
	}
	orders := make([][]int, len(cs))
	for i, c := range cs {
		orders[i] = c.order
	}
	results := g.evaluate(orders)
	for i := range cs {
		cs[i].result = results[i]
	}
	return len(cs)
}

// initPopulation seeds the population with the given chromosome followed by
// random permutations.
func (g *geneticOptimizer) initPopulation(seed chromosome) []chromosome {
	population := make([]chromosome, max(1, g.config.PopulationSize))
	population[0] = g.copyChromosome(seed)
	for i := 1; i < len(population); i++ {
		population[i] = chromosome{order: g.rng.Perm(g.size)}
	}
	return population
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if fitter(candidate, best) {
			best = candidate
		}
	}
	return g.copyChromosome(best)
}

// orderCrossover implements Order Crossover (OX1) for permutation chromosomes.
// It preserves the relative order of genes from both parents.
func (g *geneticOptimizer) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.order)
	if n <= 2 {
		return g.copyChromosome(parent1)
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{order: make([]int, n)}

	inSegment := make([]bool, n)
	for i := point1; i <= point2; i++ {
		child.order[i] = parent1.order[i]
		inSegment[parent1.order[i]] = true
	}

	// Fill remaining positions with genes from parent2 in order
	childIdx := (point2 + 1) % n
	for _, gene := range parent2.order {
		if !inSegment[gene] {
			child.order[childIdx] = gene
			childIdx = (childIdx + 1) % n
		}
	}

	return child
}

// mutate applies swap and inversion mutations.
func (g *geneticOptimizer) mutate(c *chromosome) {
	n := len(c.order)
	if n < 2 {
		return
	}

	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.order[i], c.order[j] = c.order[j], c.order[i]
	}

	// Inversion is less frequent
	if g.rng.Float64() < g.config.MutationRate*0.5 {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for i < j {
			c.order[i], c.order[j] = c.order[j], c.order[i]
			i++
			j--
		}
	}
}

func (g *geneticOptimizer) copyChromosome(c chromosome) chromosome {
	order := make([]int, len(c.order))
	copy(order, c.order)
	return chromosome{order: order, result: c.result}
}

// refine runs the genetic search seeded with the winning attempt. It returns
// the best attempt found, which may be the seed itself, and the number of
// layouts evaluated.
func (p *Packer) refine(ctx context.Context, rects []model.Rect, seed attempt) (attempt, int, error) {
	ctx, span := p.tracer.Start(ctx, "Packer.refine")
	defer span.End()

	cfg := geneticConfigFrom(p.Settings)
	evaluate := func(orders [][]int) []attempt {
		out := make([]attempt, len(orders))
		for i := range out {
			out[i] = attempt{state: stateFailed, err: errNotRun}
		}
		p.forEach(ctx, len(orders), func(i int) {
			out[i] = placeSequence(rects, orders[i], p.Settings, p.logger)
		})
		p.metrics.recordAttempts(ctx, out, "refine")
		return out
	}

	ga := newGeneticOptimizer(cfg, len(rects), p.Settings.Seed, evaluate)
	best, evaluated, err := ga.optimize(ctx, chromosome{order: seed.order, result: seed})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return attempt{}, evaluated, err
	}
	p.logger.Debug("refinement finished",
		"generations", cfg.Generations,
		"evaluated", evaluated,
		"area", best.result.area(),
	)
	return best.result, evaluated, nil
}
