package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Program description (loader) problems
	SynInfo              Code = 2000
	SynMalformedDocument Code = 2001
	SynBadTypeExpr       Code = 2002
	SynUnknownGenus      Code = 2003
	SynMissingName       Code = 2004
	SynBadCallShape      Code = 2005

	// Семантические
	SemaInfo                             Code = 3000
	SemaError                            Code = 3001
	SemaDuplicateSymbol                  Code = 3002
	SemaTypeNotResolved                  Code = 3003
	SemaNotATemplate                     Code = 3100
	SemaParameterCountMismatch           Code = 3101
	SemaTemplateRequiresParameterization Code = 3102
	SemaOperatorDefaultNotSupported      Code = 3103
	SemaDefaultAndTrait                  Code = 3104
	SemaDefaultWithSignature             Code = 3105
	SemaMethodDuplicated                 Code = 3106
	SemaMethodAmbiguous                  Code = 3107
	SemaMethodNotResolved                Code = 3108
	SemaInvalidConstraint                Code = 3109

	// I/O
	IOLoadFileError Code = 4001

	// Project
	ProjInfo            Code = 5000
	ProjManifestInvalid Code = 5001
	ProjNoSources       Code = 5002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001

	// Internal consistency failures. These abort the unit.
	ICEInfo                  Code = 9000
	ICEUnboundPlaceholder    Code = 9001
	ICECategoryMismatch      Code = 9002
	ICEUnsubstitutedAncestor Code = 9003
	ICEPopulationPanic       Code = 9004
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                          "Unknown error",
		SynInfo:                              "Program description information",
		SynMalformedDocument:                 "Malformed program description",
		SynBadTypeExpr:                       "Malformed type expression",
		SynUnknownGenus:                      "Unknown aggregate genus",
		SynMissingName:                       "Declaration without a name",
		SynBadCallShape:                      "Malformed call check",
		SemaInfo:                             "Semantic information",
		SemaError:                            "Semantic error",
		SemaDuplicateSymbol:                  "Duplicate symbol",
		SemaTypeNotResolved:                  "Type not resolved",
		SemaNotATemplate:                     "Type is not a template",
		SemaParameterCountMismatch:           "Template parameter count mismatch",
		SemaTemplateRequiresParameterization: "Template type requires parameterization",
		SemaOperatorDefaultNotSupported:      "Operator has no default implementation",
		SemaDefaultAndTrait:                  "Traits cannot default operators",
		SemaDefaultWithSignature:             "Defaulted operator must not declare a signature",
		SemaMethodDuplicated:                 "Method duplicated",
		SemaMethodAmbiguous:                  "Method call is ambiguous",
		SemaMethodNotResolved:                "Method not resolved",
		SemaInvalidConstraint:                "Invalid type parameter constraint",
		IOLoadFileError:                      "I/O load file error",
		ProjInfo:                             "Project information",
		ProjManifestInvalid:                  "Invalid project manifest",
		ProjNoSources:                        "Project has no program files",
		ObsInfo:                              "Observability information",
		ObsTimings:                           "Pipeline timings",
		ICEInfo:                              "Internal consistency information",
		ICEUnboundPlaceholder:                "Placeholder has no binding during substitution",
		ICECategoryMismatch:                  "Substituted symbol has the wrong category",
		ICEUnsubstitutedAncestor:             "Generic ancestor itself needs to be substituted",
		ICEPopulationPanic:                   "Instantiation failed unexpectedly",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

// Internal reports whether the code belongs to the internal-consistency range.
func (c Code) Internal() bool {
	return c >= ICEInfo && c < 10000
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
