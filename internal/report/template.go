// internal/report/template.go
package report

const paginaHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Relatório de Inadimplência</title>
    <style>
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            margin: 0;
            padding: 20px;
            background-color: #f5f5f5;
            color: #333;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background-color: white;
            padding: 30px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        h1 {
            color: #d32f2f;
            border-bottom: 3px solid #d32f2f;
            padding-bottom: 10px;
        }
        h2 {
            color: #1976d2;
            margin-top: 30px;
            border-left: 4px solid #1976d2;
            padding-left: 15px;
        }
        h3 {
            color: #555;
            margin-top: 20px;
        }
        .kpi-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }
        .kpi-card {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 20px;
            border-radius: 8px;
            box-shadow: 0 2px 5px rgba(0,0,0,0.2);
        }
        .kpi-card.warning {
            background: linear-gradient(135deg, #f093fb 0%, #f5576c 100%);
        }
        .kpi-card.success {
            background: linear-gradient(135deg, #4facfe 0%, #00f2fe 100%);
        }
        .kpi-label {
            font-size: 14px;
            opacity: 0.9;
            margin-bottom: 5px;
        }
        .kpi-value {
            font-size: 28px;
            font-weight: bold;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            margin: 20px 0;
            box-shadow: 0 2px 5px rgba(0,0,0,0.1);
        }
        th {
            background-color: #1976d2;
            color: white;
            padding: 12px;
            text-align: left;
            font-weight: bold;
        }
        td {
            padding: 10px;
            border-bottom: 1px solid #ddd;
        }
        tr:hover {
            background-color: #f5f5f5;
        }
        .badge {
            display: inline-block;
            padding: 4px 8px;
            border-radius: 4px;
            font-size: 12px;
            font-weight: bold;
        }
        .badge-danger {
            background-color: #d32f2f;
            color: white;
        }
        .badge-warning {
            background-color: #f57c00;
            color: white;
        }
        .badge-success {
            background-color: #388e3c;
            color: white;
        }
        .footer {
            margin-top: 40px;
            padding-top: 20px;
            border-top: 1px solid #ddd;
            text-align: center;
            color: #777;
            font-size: 12px;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>📊 Relatório de Inadimplência</h1>
        <p><strong>Data de geração:</strong> {{.GeradoEm}}</p>

        <h2>1. Panorama Geral de Inadimplência</h2>
        <div class="kpi-grid">
            <div class="kpi-card warning">
                <div class="kpi-label">Total de Devedores Únicos</div>
                <div class="kpi-value">{{numero .Metricas.TotalDevedoresUnicos}}</div>
            </div>
            <div class="kpi-card warning">
                <div class="kpi-label">Total de Boletos em Aberto</div>
                <div class="kpi-value">{{numero .Metricas.TotalBoletosEmAberto}}</div>
            </div>
            <div class="kpi-card danger">
                <div class="kpi-label">Soma da Dívida em Aberto</div>
                <div class="kpi-value">{{moeda .Metricas.SomaDividaEmAberto}}</div>
            </div>
            <div class="kpi-card">
                <div class="kpi-label">Ticket Médio em Aberto</div>
                <div class="kpi-value">{{moeda .Metricas.TicketMedioEmAberto}}</div>
            </div>
        </div>

        <h3>Estatísticas Descritivas (Valores em Aberto)</h3>
        <table>
            <tr>
                <th>Métrica</th>
                <th>Valor</th>
            </tr>
            <tr><td>Média</td><td>{{moeda .Metricas.ValorMedio}}</td></tr>
            <tr><td>Mediana</td><td>{{moeda .Metricas.ValorMediana}}</td></tr>
            <tr><td>Moda</td><td>{{moeda .Metricas.ValorModa}}</td></tr>
            <tr><td>Desvio Padrão</td><td>{{moeda .Metricas.ValorDesvioPadrao}}</td></tr>
            <tr><td>Percentil 90</td><td>{{moeda .Metricas.ValorP90}}</td></tr>
            <tr><td>Percentil 95</td><td>{{moeda .Metricas.ValorP95}}</td></tr>
        </table>

        <h3>Maior e Menor Dívida Individual</h3>
        <table>
            <tr>
                <th>Métrica</th>
                <th>Pena de Água</th>
                <th>Nome</th>
                <th>Valor</th>
            </tr>
{{if .Metricas.MaiorDivida.PersonID}}
            <tr>
                <td><strong>Maior Dívida</strong></td>
                <td>{{.Metricas.MaiorDivida.PenaAgua}}</td>
                <td>{{.Metricas.MaiorDivida.Nome}}</td>
                <td>{{moeda .Metricas.MaiorDivida.Divida}}</td>
            </tr>
{{end}}
{{if .Metricas.MenorDivida.PersonID}}
            <tr>
                <td><strong>Menor Dívida</strong></td>
                <td>{{.Metricas.MenorDivida.PenaAgua}}</td>
                <td>{{.Metricas.MenorDivida.Nome}}</td>
                <td>{{moeda .Metricas.MenorDivida.Divida}}</td>
            </tr>
{{end}}
        </table>

        <h2>2. Inadimplência por Banco</h2>
{{if .PorBanco}}
        <table>
            <tr>
                <th>Banco</th>
                <th>Soma da Dívida</th>
                <th>Valor Médio</th>
                <th>Ticket Médio</th>
                <th>Qtd Boletos</th>
                <th>Devedores Únicos</th>
            </tr>
{{range .PorBanco}}
            <tr>
                <td>{{.Banco}}</td>
                <td>{{moeda .SomaDivida}}</td>
                <td>{{moeda .ValorMedio}}</td>
                <td>{{moeda .TicketMedio}}</td>
                <td>{{numero .QtdBoletos}}</td>
                <td>{{numero .QtdDevedoresUnicos}}</td>
            </tr>
{{end}}
        </table>
{{end}}

        <h2>3. Boletos com Maior e Menor Valor em Aberto</h2>
{{if .Extremos.Maior}}
        <h3>Maior Boleto em Aberto</h3>
        <table>
            <tr><th>Campo</th><th>Valor</th></tr>
            <tr><td>Valor</td><td>{{moeda .Extremos.Maior.Valor}}</td></tr>
            <tr><td>Nome</td><td>{{.Extremos.Maior.Nome}}</td></tr>
            <tr><td>Pena de Água</td><td>{{.Extremos.Maior.PenaAgua}}</td></tr>
            <tr><td>Vencimento</td><td>{{data .Extremos.Maior.Vencimento}}</td></tr>
            <tr><td>Banco</td><td>{{.Extremos.Maior.Banco}}</td></tr>
            <tr><td>Número Nosso</td><td>{{.Extremos.Maior.NumeroNosso}}</td></tr>
        </table>
{{end}}
{{if .Extremos.Menor}}
        <h3>Menor Boleto em Aberto</h3>
        <table>
            <tr><th>Campo</th><th>Valor</th></tr>
            <tr><td>Valor</td><td>{{moeda .Extremos.Menor.Valor}}</td></tr>
            <tr><td>Nome</td><td>{{.Extremos.Menor.Nome}}</td></tr>
            <tr><td>Pena de Água</td><td>{{.Extremos.Menor.PenaAgua}}</td></tr>
            <tr><td>Vencimento</td><td>{{data .Extremos.Menor.Vencimento}}</td></tr>
            <tr><td>Banco</td><td>{{.Extremos.Menor.Banco}}</td></tr>
            <tr><td>Número Nosso</td><td>{{.Extremos.Menor.NumeroNosso}}</td></tr>
        </table>
{{end}}

        <h2>4. Ranking de Devedores</h2>
{{if .RankingDivida}}
        <h3>Top {{len .RankingDivida}} por Dívida Total</h3>
        <table>
            <tr>
                <th>Rank</th>
                <th>Pena de Água</th>
                <th>Nome</th>
                <th>Dívida Total</th>
                <th>Status Mais Comum</th>
            </tr>
{{range .RankingDivida}}
            <tr>
                <td>{{.Rank}}</td>
                <td>{{.PenaAgua}}</td>
                <td>{{truncar .Nome 50}}</td>
                <td>{{moeda .DividaTotal}}</td>
                <td><span class="badge badge-danger">{{.StatusMaisComum}}</span></td>
            </tr>
{{end}}
        </table>
{{end}}
{{if .RankingReincidencia}}
        <h3>Top {{len .RankingReincidencia}} por Reincidência (Quantidade de Boletos)</h3>
        <table>
            <tr>
                <th>Rank</th>
                <th>Pena de Água</th>
                <th>Nome</th>
                <th>Qtd Boletos</th>
                <th>Meses Apareceu</th>
                <th>Dívida Total</th>
            </tr>
{{range .RankingReincidencia}}
            <tr>
                <td>{{.Rank}}</td>
                <td>{{.PenaAgua}}</td>
                <td>{{truncar .Nome 50}}</td>
                <td>{{.QtdBoletosOpen}}</td>
                <td>{{.MesesApareceu}}</td>
                <td>{{moeda .SomaOpen}}</td>
            </tr>
{{end}}
        </table>
{{end}}

        <h2>5. Evolução Temporal da Inadimplência</h2>
{{if .Evolucao}}
        <table>
            <tr>
                <th>Mês</th>
                <th>Soma Dívida em Aberto</th>
                <th>Qtd Boletos em Aberto</th>
                <th>Qtd Devedores Únicos</th>
                <th>Valor Médio em Aberto</th>
            </tr>
{{range .Evolucao}}
            <tr>
                <td>{{.MesReferencia}}</td>
                <td>{{moeda .SomaDividaOpen}}</td>
                <td>{{numero .QtdBoletosOpen}}</td>
                <td>{{numero .QtdDevedoresOpenUnicos}}</td>
                <td>{{moeda .ValorMedioOpen}}</td>
            </tr>
{{end}}
        </table>
{{end}}

        <h2>6. Pioras e Melhoras (Mudanças Mês a Mês)</h2>
{{if .TopPioras}}
        <h3>Top {{len .TopPioras}} Maiores Aumentos de Dívida</h3>
        <table>
            <tr>
                <th>Pena de Água</th>
                <th>Nome</th>
                <th>Mês Anterior</th>
                <th>Mês Atual</th>
                <th>Dívida Anterior</th>
                <th>Dívida Atual</th>
                <th>Delta</th>
                <th>% Delta</th>
            </tr>
{{range .TopPioras}}
            <tr>
                <td>{{.PenaAgua}}</td>
                <td>{{truncar .Nome 40}}</td>
                <td>{{.MesAnterior}}</td>
                <td>{{.MesAtual}}</td>
                <td>{{moeda .DividaMesAnterior}}</td>
                <td>{{moeda .DividaMesAtual}}</td>
                <td><span class="badge badge-danger">+{{moeda .Delta}}</span></td>
                <td>+{{pct .PctDelta}}</td>
            </tr>
{{end}}
        </table>
{{end}}
{{if .TopMelhoras}}
        <h3>Top {{len .TopMelhoras}} Maiores Reduções de Dívida</h3>
        <table>
            <tr>
                <th>Pena de Água</th>
                <th>Nome</th>
                <th>Mês Anterior</th>
                <th>Mês Atual</th>
                <th>Dívida Anterior</th>
                <th>Dívida Atual</th>
                <th>Delta</th>
                <th>% Delta</th>
            </tr>
{{range .TopMelhoras}}
            <tr>
                <td>{{.PenaAgua}}</td>
                <td>{{truncar .Nome 40}}</td>
                <td>{{.MesAnterior}}</td>
                <td>{{.MesAtual}}</td>
                <td>{{moeda .DividaMesAnterior}}</td>
                <td>{{moeda .DividaMesAtual}}</td>
                <td><span class="badge badge-success">{{moeda .Delta}}</span></td>
                <td>{{pct .PctDelta}}</td>
            </tr>
{{end}}
        </table>
{{end}}

        <h2>7. Qualidade dos Dados</h2>
        <table>
            <tr>
                <th>Métrica</th>
                <th>Valor</th>
            </tr>
            <tr><td>Total de Linhas</td><td>{{numero .Qualidade.TotalLinhas}}</td></tr>
            <tr><td>Linhas com Valor Inválido</td><td>{{numero .Qualidade.QtdLinhasInvalidasValor}} ({{pct .Qualidade.PctLinhasInvalidasValor}})</td></tr>
            <tr><td>Linhas com Data Inválida</td><td>{{numero .Qualidade.QtdLinhasInvalidasData}} ({{pct .Qualidade.PctLinhasInvalidasData}})</td></tr>
            <tr><td>Duplicidades (Banco + Número Nosso)</td><td>{{numero .Qualidade.DuplicidadesBancoNumeroNosso}}</td></tr>
            <tr><td>Duplicidades (Banco + Número Seu)</td><td>{{numero .Qualidade.DuplicidadesBancoNumeroSeu}}</td></tr>
        </table>
{{if .StatusDesconhecidos}}
        <h3>Status Desconhecidos (Não Classificados)</h3>
        <p>Os seguintes status foram encontrados mas não foram classificados como PAGO ou EM ABERTO:</p>
        <ul>
{{range .StatusDesconhecidos}}
            <li><code>{{.}}</code></li>
{{end}}
        </ul>
        <p><strong>Recomendação:</strong> Revise as regras de classificação usando --paid-status e --open-status.</p>
{{end}}

{{if .Graficos}}
        <h2>8. Gráficos Interativos</h2>
        <ul>
{{range .Graficos}}
            <li><a href="{{.Endereco}}">{{.Titulo}}</a></li>
{{end}}
        </ul>
{{end}}

        <div class="footer">
            <p>Relatório gerado automaticamente pelo Sistema de Análise de Inadimplência</p>
            <p>Foco: Identificação e acompanhamento de devedores e inadimplência</p>
            <p>Execução: {{.ExecucaoID}}</p>
        </div>
    </div>
</body>
</html>
`
