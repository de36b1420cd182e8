package handlers

// Mode is one query a tool can run. Each mode maps to a single backend
// endpoint.
type Mode struct {
	Name        string
	Description string
	Endpoint    string
	// Param is the backend parameter that receives the resolved entity.
	Param string
	// TargetParam is set for two-entity checks.
	TargetParam string
	// List modes return a sequence that is paginated; others return one value.
	List bool
}

// Tool is a knowledge-graph tool exposed over MCP.
type Tool struct {
	Name        string
	Description string
	EntityHint  string
	Modes       []Mode
}

// Mode returns the named mode.
func (t Tool) Mode(name string) (Mode, bool) {
	for _, m := range t.Modes {
		if m.Name == name {
			return m, true
		}
	}
	return Mode{}, false
}

// ModeNames lists the mode names in catalogue order.
func (t Tool) ModeNames() []string {
	out := make([]string, len(t.Modes))
	for i, m := range t.Modes {
		out[i] = m.Name
	}
	return out
}

// NeedsTarget reports whether any mode takes a second entity.
func (t Tool) NeedsTarget() bool {
	for _, m := range t.Modes {
		if m.TargetParam != "" {
			return true
		}
	}
	return false
}

func list(name, endpoint, param, desc string) Mode {
	return Mode{Name: name, Description: desc, Endpoint: endpoint, Param: param, List: true}
}

func check(name, endpoint, param, target, desc string) Mode {
	return Mode{Name: name, Description: desc, Endpoint: endpoint, Param: param, TargetParam: target}
}

// Catalog returns the knowledge-graph tools in registration order.
func Catalog() []Tool {
	return []Tool{
		{
			Name:        "query_gene",
			Description: "Explore a gene: diseases, pathways, GO terms, tissues, variants and drugs targeting it.",
			EntityHint:  "Gene CURIE, e.g. hgnc:11998 (TP53)",
			Modes: []Mode{
				list("diseases", "get_diseases_for_gene", "gene", "Diseases associated with the gene"),
				list("pathways", "get_pathways_for_gene", "gene", "Pathways containing the gene"),
				list("go_terms", "get_go_terms_for_gene", "gene", "GO terms annotated to the gene"),
				list("tissues", "get_tissues_for_gene", "gene", "Tissues expressing the gene"),
				list("variants", "get_variants_for_gene", "gene", "Variants in the gene"),
				list("drugs", "get_drugs_for_target", "target", "Drugs targeting the gene product"),
				list("phenotypes", "get_phenotypes_for_gene", "gene", "Phenotypes associated with the gene"),
			},
		},
		{
			Name:        "query_disease",
			Description: "Explore a disease: associated genes, phenotypes, drugs indicated for it and trials.",
			EntityHint:  "Disease CURIE, e.g. mesh:D001943 (breast neoplasms)",
			Modes: []Mode{
				list("genes", "get_genes_for_disease", "disease", "Genes associated with the disease"),
				list("phenotypes", "get_phenotypes_for_disease", "disease", "Phenotypes of the disease"),
				list("drugs", "get_drugs_for_indication", "indication", "Drugs indicated for the disease"),
				list("trials", "get_trials_for_disease", "disease", "Clinical trials studying the disease"),
			},
		},
		{
			Name:        "query_drug",
			Description: "Explore a drug: targets, indications, side effects and trials.",
			EntityHint:  "Drug CURIE, e.g. chebi:45783 (imatinib)",
			Modes: []Mode{
				list("targets", "get_targets_for_drug", "drug", "Protein targets of the drug"),
				list("indications", "get_indications_for_drug", "drug", "Indications of the drug"),
				list("side_effects", "get_side_effects_for_drug", "drug", "Reported side effects"),
				list("trials", "get_trials_for_drug", "drug", "Clinical trials testing the drug"),
			},
		},
		{
			Name:        "query_pathway",
			Description: "Explore a pathway and its member genes.",
			EntityHint:  "Pathway CURIE, e.g. reactome:R-HSA-5673001 or wikipathways:WP4172",
			Modes: []Mode{
				list("genes", "get_genes_in_pathway", "pathway", "Genes in the pathway"),
				list("shared_pathways", "get_shared_pathways_for_genes", "pathway", "Pathways sharing genes with this one"),
			},
		},
		{
			Name:        "query_variant",
			Description: "Explore a genetic variant: genes, GWAS phenotypes and diseases.",
			EntityHint:  "Variant CURIE, e.g. dbsnp:rs7412",
			Modes: []Mode{
				list("genes", "get_genes_for_variant", "variant", "Genes the variant falls in"),
				list("phenotypes", "get_phenotypes_for_variant_gwas", "variant", "GWAS phenotypes for the variant"),
				list("diseases", "get_diseases_for_variant", "variant", "Diseases associated with the variant"),
			},
		},
		{
			Name:        "query_cell_line",
			Description: "Explore a cancer cell line: mutated genes, copy number changes and drug sensitivity.",
			EntityHint:  "Cell line CURIE, e.g. ccle:A549_LUNG",
			Modes: []Mode{
				list("mutations", "get_mutated_genes", "cell_line", "Genes mutated in the cell line"),
				list("copy_number", "get_copy_number_altered_genes", "cell_line", "Genes with copy number alterations"),
				list("sensitive_drugs", "get_drugs_cell_line_is_sensitive_to", "cell_line", "Drugs the cell line is sensitive to"),
			},
		},
		{
			Name:        "query_literature",
			Description: "Explore the literature: publications for an entity, statements and MeSH annotations for a paper.",
			EntityHint:  "pubmed:12345678 for paper modes, mesh:D000000 for term modes",
			Modes: []Mode{
				list("statements", "get_stmts_for_paper", "paper_term", "INDRA statements extracted from the paper"),
				list("mesh_terms", "get_mesh_ids_for_pmid", "paper_term", "MeSH terms annotating the paper"),
				list("papers_for_mesh", "get_pmids_for_mesh", "mesh_term", "Papers annotated with the MeSH term"),
			},
		},
		{
			Name:        "query_ontology",
			Description: "Navigate ontology hierarchies (GO, MeSH, HPO, DOID).",
			EntityHint:  "Ontology term CURIE, e.g. go:0006915",
			Modes: []Mode{
				list("children", "get_ontology_child_terms", "term", "Direct child terms"),
				list("parents", "get_ontology_parent_terms", "term", "Direct parent terms"),
				list("genes", "get_genes_for_go_term", "go_term", "Genes annotated with the GO term"),
			},
		},
		{
			Name:        "query_clinical_trials",
			Description: "Explore a clinical trial: tested drugs and studied diseases.",
			EntityHint:  "Trial CURIE, e.g. clinicaltrials:NCT00000102",
			Modes: []Mode{
				list("drugs", "get_drugs_for_trial", "trial", "Drugs tested in the trial"),
				list("diseases", "get_diseases_for_trial", "trial", "Diseases studied in the trial"),
			},
		},
		{
			Name:        "check_relationship",
			Description: "Check whether a specific relationship holds between two entities.",
			EntityHint:  "Source entity CURIE; the second entity goes in target",
			Modes: []Mode{
				check("drug_target", "is_drug_target", "drug", "target", "Drug (entity) targets gene (target)"),
				check("drug_indication", "drug_has_indication", "drug", "indication", "Drug (entity) is indicated for disease (target)"),
				check("gene_in_pathway", "is_gene_in_pathway", "gene", "pathway", "Gene (entity) is a member of pathway (target)"),
				check("gene_disease", "is_gene_associated_with_disease", "gene", "disease", "Gene (entity) is associated with disease (target)"),
				check("side_effect", "is_side_effect_for_drug", "drug", "side_effect", "Drug (entity) has side effect (target)"),
				check("gene_mutated", "is_gene_mutated", "gene", "cell_line", "Gene (entity) is mutated in cell line (target)"),
			},
		},
	}
}
