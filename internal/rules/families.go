package rules

// Built-in template tables. Wire names follow the move notation of the
// chemlambda literature: digits are boundary wires, letters are the join
// wire or internal wires.
var (
	betaTemplates = []*Template{
		MustTemplate("L_A", "L 1 2 c, A c 4 3 => Arrow 1 3, Arrow 4 2"),
	}

	fanInTemplates = []*Template{
		MustTemplate("FI_FOE", "FI 1 4 c, FOE c 2 3 => Arrow 1 3, Arrow 4 2"),
	}

	// Cases are scanned in the order listed.
	distTemplates = []*Template{
		MustTemplate("FO_FOE", "FO 1 2 c, FOE c 3 4 => FI j i 2, FO k i 3, FO l j 4, FOE 1 k l"),
		MustTemplate("FI_FO", "FI 1 4 c, FO c 2 3 => FO 1 i j, FI i k 2, FI j l 3, FO 4 k l"),
		MustTemplate("L_FO", "L 1 2 c, FO c 3 4 => FI j i 2, L k i 3, L l j 4, FOE 1 k l"),
		MustTemplate("L_FOE", "L 1 2 c, FOE c 3 4 => FI j i 2, L k i 3, L l j 4, FOE 1 k l"),
		MustTemplate("A_FO", "A 1 4 c, FO c 2 3 => FOE 1 i j, A i k 2, A j l 3, FOE 4 k l"),
		MustTemplate("A_FOE", "A 1 4 c, FOE c 2 3 => FOE 1 i j, A i k 2, A j l 3, FOE 4 k l"),
	}

	// A terminator consumes what feeds it and spreads to the inputs. The
	// bound variable of an erased lambda becomes a free input.
	//
	// Three passes: applications and fan-ins together, then lambdas, then
	// both fan-out kinds with the left copy tried before the right one.
	pruningPasses = [][]*Template{
		{
			MustTemplate("A_FI_T", "A 1 2 3, T 3 => T 1, T 2"),
			MustTemplate("A_FI_T", "FI 1 2 3, T 3 => T 1, T 2"),
		},
		{
			MustTemplate("L_T", "L 1 2 3, T 3 => T 1, FRIN 2"),
		},
		{
			MustTemplate("FO_T_left", "FO 1 2 3, T 2 => Arrow 1 3"),
			MustTemplate("FO_T_left", "FOE 1 2 3, T 2 => Arrow 1 3"),
			MustTemplate("FO_T_right", "FO 1 2 3, T 3 => Arrow 1 2"),
			MustTemplate("FO_T_right", "FOE 1 2 3, T 3 => Arrow 1 2"),
		},
	}
)

// Beta is the BETA rule: a lambda whose right port meets an application's
// left port is replaced by two arrows.
func Beta() *TemplateRule { return NewTemplateRule(NameBeta, betaTemplates...) }

// FanIn is the FAN-IN rule: a fan-in feeding an extra fan-out annihilates
// into two arrows.
func FanIn() *TemplateRule { return NewTemplateRule(NameFanIn, fanInTemplates...) }

// Dist is the DIST rule family: a fan-out duplicates the node feeding it.
func Dist() *TemplateRule { return NewTemplateRule(NameDist, distTemplates...) }

// Pruning is the garbage collection family started by terminators.
func Pruning() *TemplateRule { return NewPassRule(NamePruning, pruningPasses...) }
